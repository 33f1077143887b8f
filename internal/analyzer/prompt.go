package analyzer

import (
	"fmt"

	"github.com/sozercan/insightbot/internal/dataset"
)

// PromptSampleRows is how many leading dataset rows are shown to the model.
const PromptSampleRows = 10

const promptTemplate = `Eres un analista de datos experto. Analiza el siguiente dataset de ventas:
%s

Responde en %s con claridad y precisión a la siguiente pregunta:
%s`

// BuildPrompt embeds the first PromptSampleRows rows of table and the question,
// verbatim, in the analyst instruction.
func BuildPrompt(table *dataset.Table, question, language string) string {
	return fmt.Sprintf(promptTemplate, table.Head(PromptSampleRows).Text(), language, question)
}
