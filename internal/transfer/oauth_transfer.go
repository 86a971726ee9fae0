package transfer

type LinkedinUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type FacebookUserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TwitterUserInfo struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

type InstagramUserInfo struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type PlatformErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
