package transfer

type PostCreation struct {
	UserID      string   `json:"user_id"`
	AccountID   int64    `json:"account_id"`
	Content     string   `json:"content"`
	ImageURL    string   `json:"image_url"`
	ImagePrompt string   `json:"image_prompt"`
	ScheduledAt string   `json:"scheduled_at"`
	Hashtags    []string `json:"hashtags"`
}

type AccountConnection struct {
	UserID      string `json:"user_id"`
	Platform    string `json:"platform"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	AccessToken string `json:"access_token"`
}
