package models

// Input message

type ProcessRequest struct {
	Text   string `json:"text" description:"Source text the model works on"`
	Prompt string `json:"prompt" description:"Instruction steering the model"`
}

// Output message
type ProcessResponse struct {
	Response string `json:"response" description:"Text generated by the model"`
}
