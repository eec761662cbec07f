package transport

// TaskRequest is the JSON body accepted by the task API.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Form field names used by the task form. The description field is named
// "desc" by the form; "description" is accepted as well.
const (
	FormTitle           = "title"
	FormDescription     = "desc"
	FormDescriptionLong = "description"
)
