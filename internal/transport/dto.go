package transport

type CountUpdate struct {
	Count *int `json:"count"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}
