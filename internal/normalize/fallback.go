package normalize

// Messages recorded in Result.Error when the reply could not be used as is.
const (
	MsgEmptyReply     = "no valid response was received from the analysis model"
	MsgNothingUsable  = "could not extract enough information from the analysis model reply"
	MsgHeuristicParse = "the analysis model reply was not valid JSON; fields were recovered heuristically"
)

// Fallback returns the fixed payload used when nothing could be recovered, with Error set to msg.
func Fallback(msg string) *Result {
	r := &Result{
		AllJobKeywords: []string{"Python", "SQL", "gestão de projetos", "liderança", "comunicação", "análise de dados"},
		KeywordsFound:  []string{"Python", "liderança", "comunicação"},
		ATSRecommendations: []string{
			"Adicionar mais detalhes sobre experiências profissionais",
			"Incluir resultados quantificáveis",
			"Adicionar certificações relevantes",
			"Utilizar palavras-chave específicas da área",
		},
		TechnicalTerms: map[string]TechnicalTerm{
			"Python":           {Term: "Python", Frequency: 1, Relevance: RelevanceMedium},
			"Análise de Dados": {Term: "Análise de Dados", Frequency: 1, Relevance: RelevanceHigh},
		},
		BehavioralCompetencies: []string{"Comunicação", "Trabalho em equipe", "Resolução de problemas"},
		MotivationalConclusion: "Seu currículo tem potencial! Com alguns ajustes, você aumentará " +
			"significativamente suas chances de sucesso nas vagas desejadas.",
		Error: msg,
	}
	r.Reconcile()
	return r
}
