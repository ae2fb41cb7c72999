package tutorial

import "github.com/parcelkit/api"

// ModelName is one of the known network architectures.
type ModelName string

const (
	AlexNet ModelName = "alexnet"
	ResNet  ModelName = "resnet"
	LeNet   ModelName = "lenet"
)

// EnumValues implements api.EnumValuer.
func (ModelName) EnumValues() []string {
	return []string{string(AlexNet), string(ResNet), string(LeNet)}
}

// Item is the basic catalogue entry.
type Item struct {
	Name         string   `json:"name" required:"true" example:"Foo"`
	Description  *string  `json:"description,omitempty" example:"A very nice Item"`
	Price        float64  `json:"price" required:"true" example:"35.4"`
	Tax          *float64 `json:"tax,omitempty" example:"3.2"`
	PriceWithTax *float64 `json:"price_with_tax,omitempty"`
}

// Image is a picture attached to an item.
type Image struct {
	URL  string `json:"url" required:"true" format:"http_url"`
	Name string `json:"name" required:"true"`
}

// ItemBase is the richer item used by offers.
type ItemBase struct {
	Name             string          `json:"name" required:"true"`
	Description      *string         `json:"description,omitempty" maxLength:"300" doc:"The description of the item"`
	Price            float64         `json:"price" required:"true" gt:"0" doc:"The price must be greater than zero"`
	Tax              *float64        `json:"tax,omitempty"`
	Tags             []string        `json:"tags" default:""`
	UniqueStringList api.Set[string] `json:"unique_string_list"`
	Image            *Image          `json:"image,omitempty"`
	Images           []Image         `json:"images,omitempty"`
}

// Offer bundles several items under one price.
type Offer struct {
	Name        string     `json:"name" required:"true"`
	Description *string    `json:"description,omitempty"`
	Price       float64    `json:"price" required:"true"`
	Items       []ItemBase `json:"items" required:"true"`
}

// User is the owner attached to an item update.
type User struct {
	Username string  `json:"username" required:"true"`
	FullName *string `json:"full_name,omitempty"`
}

// UserIn is the sign-up payload. The password never leaves the server.
type UserIn struct {
	Username string  `json:"username" required:"true"`
	Password string  `json:"password" required:"true"`
	Email    string  `json:"email" required:"true" format:"email"`
	FullName *string `json:"full_name,omitempty"`
}

// UserOut is what the API returns for a user.
type UserOut struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

// fakeItems is the in-memory stand-in for the item table.
var fakeItems = []ItemRef{{ItemName: "Foo"}, {ItemName: "Bar"}, {ItemName: "Baz"}}

// ItemRef is a row of the fake item table.
type ItemRef struct {
	ItemName string `json:"item_name"`
}
