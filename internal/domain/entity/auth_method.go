package entity

// AuthMethod is one publicly listable way of signing in, aggregated from all
// registered identity providers and rendered on the login page.
type AuthMethod struct {
	Provider string `json:"provider"`
	Name     string `json:"name,omitempty"`
	ImageSrc string `json:"image_src,omitempty"`
}
