package main

// User represents the identity of a registered catalogue member.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Book represents a book entity of the remote catalogue. The client
// holds read-only copies for the currently fetched page only.
type Book struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	CreatedAt string `json:"createdAt"`
}

// ReviewUser carries the display name of a review author.
type ReviewUser struct {
	Name string `json:"name"`
}

// Review represents a star rating with its text for a given book.
type Review struct {
	ID        string     `json:"_id"`
	BookID    string     `json:"bookId"`
	Rating    int        `json:"rating"`
	Text      string     `json:"review_text"`
	User      ReviewUser `json:"user"`
	CreatedAt string     `json:"createdAt"`
}

// BookPage is the result shape of a catalogue listing fetch.
type BookPage struct {
	Books      []Book `json:"books"`
	TotalPages int    `json:"totalPages"`
}

// LoginRequest is the payload sent to the authentication endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the payload returned by the authentication endpoint.
type LoginResponse struct {
	User    User   `json:"user"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// RegisterRequest is the payload sent to the registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ReviewRequest is the payload sent to submit a new review.
type ReviewRequest struct {
	BookID string `json:"bookId"`
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// AddBookRequest is the payload sent to add a new book to the catalogue.
type AddBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// APIMessage is the generic message payload returned by the api
// on both success and failure responses.
type APIMessage struct {
	Message string `json:"message"`
}

// AuthResult is the value returned by the auth flows. Failures are
// converted into a result value and never propagated as raw errors.
type AuthResult struct {
	Success bool
	Message string
}
