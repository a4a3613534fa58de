package analysis

import (
	"github.com/jonathan/cv-keyword-analyzer/internal/prompts"
)

const promptFile = "analysis.json"

// MaxJobs is how many job texts the prompt has slots for.
const MaxJobs = 2

// BuildPrompt renders the analysis prompt. Missing job slots are marked as not provided.
func BuildPrompt(resumeText string, jobTexts []string) string {
	notProvided := prompts.MustGet(promptFile, "not-provided")
	slots := [MaxJobs]string{notProvided, notProvided}
	for i := 0; i < len(jobTexts) && i < MaxJobs; i++ {
		if jobTexts[i] != "" {
			slots[i] = jobTexts[i]
		}
	}

	return prompts.Format(prompts.MustGet(promptFile, "analysis"), map[string]string{
		"Resume": resumeText,
		"Job1":   slots[0],
		"Job2":   slots[1],
	})
}

// CorrectionAddendum is appended to the prompt on every attempt after the first.
func CorrectionAddendum() string {
	return prompts.MustGet(promptFile, "correction")
}

// SystemInstruction is sent with every call.
func SystemInstruction() string {
	return prompts.MustGet(promptFile, "system")
}
