package profile

// Profile is the user's self-description used to personalize AI analysis
// and chat. All fields are optional; zero values render as "not set" in
// prompt text.
type Profile struct {
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Values    []string `json:"values"`
	Interests []string `json:"interests"`
	Goals     string   `json:"goals"`
}
