package spoonacular

// Candidate is a single entry of a findByIngredients response.
// Fields are pointers so that an absent field can be told apart from a zero value.
type Candidate struct {
	ID                    *int    `json:"id"`
	Title                 *string `json:"title"`
	UsedIngredientCount   *int    `json:"usedIngredientCount"`
	MissedIngredientCount *int    `json:"missedIngredientCount"`
}

// Ingredient is an entry of extendedIngredients.
type Ingredient struct {
	Name *string `json:"name"`
}

// RecipeInformation is the subset of the recipe information response used for summaries.
type RecipeInformation struct {
	ID                  *int         `json:"id"`
	Title               *string      `json:"title"`
	ReadyInMinutes      *int         `json:"readyInMinutes"`
	Servings            *int         `json:"servings"`
	Instructions        *string      `json:"instructions"`
	ExtendedIngredients []Ingredient `json:"extendedIngredients"`
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return "request to " + e.Endpoint + " failed with status " + e.Status + ": " + e.Message
	}
	return "request to " + e.Endpoint + " failed with status " + e.Status
}
