package models

import "strings"

// AIModel describes one entry of the model catalog
type AIModel struct {
	ID          string
	Name        string
	Provider    string
	Description string
	Strengths   []string
	UseCases    []string
}

// Available models. The first entry is the default for new sessions.
var catalog = []AIModel{
	{
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Provider:    "OpenAI",
		Description: "OpenAI's most advanced model, with broad general knowledge and domain expertise.",
		Strengths:   []string{"Broad knowledge", "Complex reasoning", "Nuanced instructions", "Creative content"},
		UseCases:    []string{"Research", "Code generation", "Creative writing", "Problem-solving"},
	},
	{
		ID:          "gpt-4o-mini",
		Name:        "GPT-4o Mini",
		Provider:    "OpenAI",
		Description: "Smaller, faster version of GPT-4o with high accuracy at a lower cost.",
		Strengths:   []string{"Fast responses", "Efficient knowledge", "Cost-effective", "Good accuracy"},
		UseCases:    []string{"Quick answers", "Simple tasks", "General information", "Drafting content"},
	},
	{
		ID:          "claude-3-opus",
		Name:        "Claude 3 Opus",
		Provider:    "Anthropic",
		Description: "Anthropic's most capable model, with excellent reasoning and thoughtfulness.",
		Strengths:   []string{"Deep reasoning", "Thoughtful responses", "Meticulous", "Good judgment"},
		UseCases:    []string{"Complex explanations", "Decision support", "Detailed analysis", "Careful content"},
	},
	{
		ID:          "claude-3-sonnet",
		Name:        "Claude 3 Sonnet",
		Provider:    "Anthropic",
		Description: "Balanced model for mainstream applications requiring reasoning quality.",
		Strengths:   []string{"Balanced capabilities", "Good reasoning", "Helpful responses", "Efficiency"},
		UseCases:    []string{"Customer support", "Content creation", "Education", "Productivity"},
	},
	{
		ID:          "gemini-1.5-pro",
		Name:        "Gemini 1.5 Pro",
		Provider:    "Google",
		Description: "Google's advanced model with impressive multimodal capabilities.",
		Strengths:   []string{"Strong reasoning", "Multimodal understanding", "Long contexts", "Safety features"},
		UseCases:    []string{"Image understanding", "Long documents", "Extended conversations", "Professional tasks"},
	},
	{
		ID:          "mistral-large",
		Name:        "Mistral Large",
		Provider:    "Mistral AI",
		Description: "Mistral's flagship model with sophisticated reasoning capabilities.",
		Strengths:   []string{"Efficiency", "Mathematical abilities", "Code understanding", "Logical reasoning"},
		UseCases:    []string{"Data analysis", "Scientific computation", "Code review", "Technical documentation"},
	},
}

// AllModels returns a copy of the catalog in display order
func AllModels() []AIModel {
	out := make([]AIModel, len(catalog))
	copy(out, catalog)
	return out
}

// DefaultModel returns the first catalog entry
func DefaultModel() AIModel {
	return catalog[0]
}

// ModelByID looks up a catalog entry. The comparison ignores case.
func ModelByID(id string) (AIModel, bool) {
	for _, m := range catalog {
		if strings.EqualFold(m.ID, id) {
			return m, true
		}
	}
	return AIModel{}, false
}

// ModelIDs returns the ids of all catalog entries
func ModelIDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, m := range catalog {
		ids = append(ids, m.ID)
	}
	return ids
}
