package transfer

type GenerateRequest struct {
	ProfileURL string `json:"profile_url"`
	Theme      string `json:"theme"`
	Details    string `json:"details"`
	Platform   string `json:"platform"`
	WithImage  bool   `json:"with_image"`
}

type PostUpdate struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	Platform string `json:"platform"`
}
