package google

import "encoding/json"

// generateContentRequest and friends model the Vertex AI Gemini wire format.
type generateContentRequest struct {
	Contents          []apiContent         `json:"contents"`
	SystemInstruction *apiContent          `json:"systemInstruction,omitempty"`
	Tools             []apiTool            `json:"tools,omitempty"`
	ToolConfig        *apiToolConfig       `json:"toolConfig,omitempty"`
	GenerationConfig  *apiGenerationConfig `json:"generationConfig,omitempty"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

// apiPart is a union; exactly one field is set.
type apiPart struct {
	Text             string               `json:"text,omitempty"`
	InlineData       *apiInlineData       `json:"inlineData,omitempty"`
	FunctionCall     *apiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *apiFunctionResponse `json:"functionResponse,omitempty"`
}

type apiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type apiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type apiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type apiTool struct {
	FunctionDeclarations []apiFunctionDeclaration `json:"functionDeclarations"`
}

type apiFunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type apiToolConfig struct {
	FunctionCallingConfig apiFunctionCallingConfig `json:"functionCallingConfig"`
}

type apiFunctionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

type apiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type generateContentResponse struct {
	Candidates    []apiCandidate    `json:"candidates"`
	UsageMetadata *apiUsageMetadata `json:"usageMetadata,omitempty"`
}

type apiCandidate struct {
	Content      *apiContent `json:"content,omitempty"`
	FinishReason string      `json:"finishReason,omitempty"`
}

type apiUsageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount"`
	CandidatesTokenCount    int `json:"candidatesTokenCount"`
	TotalTokenCount         int `json:"totalTokenCount"`
	CachedContentTokenCount int `json:"cachedContentTokenCount"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
