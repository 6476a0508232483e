package recipe

// generateRequest тело запроса GenerateContent
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Items       *schema            `json:"items,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func str(desc string) *schema { return &schema{Type: "STRING", Description: desc} }

// recipeSchema форма ответа, которую просим у модели
var recipeSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"title":      str("Nome da receita"),
		"difficulty": str("Fácil, Médio ou Difícil"),
		"time":       str("Tempo de preparo"),
		"ingredients": {
			Type:        "ARRAY",
			Items:       &schema{Type: "STRING"},
			Description: "Lista de ingredientes com quantidades",
		},
		"instructions": {
			Type:        "ARRAY",
			Items:       &schema{Type: "STRING"},
			Description: "Passo a passo do preparo",
		},
		"healthBenefits": str("Breve descrição dos benefícios para a saúde"),
	},
}
