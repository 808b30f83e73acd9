package summarize

import "strings"

// Mode selects the summary style.
type Mode string

const (
	ModeBrief    Mode = "brief"
	ModeDetailed Mode = "detailed"
	ModeBullets  Mode = "bullets"
)

// Modes lists the accepted modes in display order.
var Modes = []Mode{ModeBrief, ModeDetailed, ModeBullets}

// ParseMode maps a user string to a Mode. Anything unrecognised is treated
// as bullets, the catch-all style.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBrief:
		return ModeBrief
	case ModeDetailed:
		return ModeDetailed
	default:
		return ModeBullets
	}
}

// Output convention shared by every mode: plain text, newline-separated
// paragraphs, bullets introduced by "-". Rendering and speech depend on it.
const (
	commonInstruction = "Do not use special formatting like bolding or italics. Use newline characters for paragraph or line separation."
	bulletInstruction = "Start any bullet points with a dash (-). Do not use asterisks (*)."
)

// Instruction returns the fixed instruction block prepended to the text.
func (m Mode) Instruction() string {
	switch m {
	case ModeBrief:
		return "Provide a concise summary in a single paragraph, approximately 6 to 7 lines long. Your output MUST NOT contain any bullet points or lists. " +
			commonInstruction + "\n"
	case ModeDetailed:
		return "Provide a detailed summary, structuring the output into 5 to 6 distinct paragraphs. Focus on a narrative, paragraph format, but you may use up to 5 bullet points within the summary ONLY if they are absolutely necessary to clearly itemize facts. The primary structure must be paragraphs. " +
			bulletInstruction + " " + commonInstruction + "\n"
	default:
		return "Create a list of exactly 10 distinct, well-organized bullet points. Start each point with a dash (-). " +
			bulletInstruction + " " + commonInstruction + "\n"
	}
}

// BuildPrompt joins the mode instruction and the input text.
func BuildPrompt(m Mode, text string) string {
	return m.Instruction() + text
}
