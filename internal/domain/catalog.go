package domain

import "time"

// Category groups recipes on the upstream service.
type Category struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	CreationDate     time.Time `json:"creationDate"`
	ModificationDate time.Time `json:"modificationDate"`
}

// Tag is a fixed label attached to a recipe.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Recipe is the central catalog entity.
type Recipe struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	ImagePath   string     `json:"imagePath"`
	Tag         Tag        `json:"tag"`
	Categories  []Category `json:"category"`
}

// Favourite links a user to a recipe they marked.
type Favourite struct {
	ID     int    `json:"id"`
	Recipe Recipe `json:"recipe"`
}

// Page is the upstream pagination envelope shared by all list endpoints.
type Page[T any] struct {
	PageNumber   int `json:"pageNumber"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalNumberOfRecords"`
	TotalPages   int `json:"totalNumberOfPages"`
	Data         []T `json:"data"`
}
