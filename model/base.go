package model

// Pager limits list queries.
type Pager struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Order controls list ordering.
type Order struct {
	OrderAsc bool   `json:"order_asc" form:"order_asc"` // ascending when true
	OrderBy  string `json:"order_by" form:"order_by"`   // column name, eg: "id"
}
