package entity

// ChatMessage is one turn of an advisor conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
