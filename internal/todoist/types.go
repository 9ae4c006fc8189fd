package todoist

// Task represents a Todoist task as returned by the API.
// Tasks are owned by Todoist; resched only ever updates the due date and
// content of existing tasks.
type Task struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Priority    int    `json:"priority"`
	Due         *Due   `json:"due,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"` // RFC 3339, empty if not completed
}

// IsCompleted returns true if the task carries a completion timestamp.
func (t *Task) IsCompleted() bool {
	return t.CompletedAt != ""
}

// Due represents a task due date.
type Due struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Datetime    string `json:"datetime,omitempty"`
	String      string `json:"string,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
}

// Comment represents a task comment. Comments are the persistence mechanism
// for resched's per-task metadata records.
type Comment struct {
	ID      string `json:"id"`
	TaskID  string `json:"task_id"`
	Content string `json:"content"`
}

// UpdateTaskArgs holds the fields resched is allowed to change on a task.
// Zero-valued fields are omitted from the request.
type UpdateTaskArgs struct {
	DueDate string `json:"due_date,omitempty"` // YYYY-MM-DD
	Content string `json:"content,omitempty"`
}
