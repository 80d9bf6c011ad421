package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const consoleHelp = `commands:
  list                  show the current page of the catalogue
  search <term>         narrow the fetched page by title or author (empty to reset)
  genre <name>          filter by genre (empty for all genres)
  author <name>         filter by author (empty for all authors)
  perpage <n>           set the page size
  page <n>              jump to a page
  next | prev           move one page forward or backward
  open <book-id>        show a book with its reviews
  review <rating> <txt> review the opened book (1..5 stars)
  add                   add a new book to the catalogue
  login | register      authenticate or create an account
  logout | whoami       end the session or show the current user
  help | quit`

// Console drives the catalogue services from an interactive prompt.
// All state lives in the services; the console only parses commands
// and prints renderings.
type Console struct {
	logger  *zap.Logger
	api     CatalogAPI
	session *SessionStore
	catalog *CatalogService
	detail  *DetailService
	in      *bufio.Scanner
	out     io.Writer
}

// NewConsole provides an instance of Console bound to the given streams.
func NewConsole(logger *zap.Logger, api CatalogAPI, session *SessionStore, catalog *CatalogService, detail *DetailService, in io.Reader, out io.Writer) *Console {
	return &Console{
		logger:  logger,
		api:     api,
		session: session,
		catalog: catalog,
		detail:  detail,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run restores the session, loads the first catalogue page and processes
// commands until quit or end of input.
func (cl *Console) Run(ctx context.Context) error {
	cl.session.Restore(ctx)
	if cl.session.IsAuthenticated() {
		fmt.Fprintf(cl.out, "Welcome back, %s.\n", cl.session.User().Name)
	}

	fmt.Fprintln(cl.out, "Loading books...")
	if err := cl.catalog.Refresh(ctx); err != nil {
		fmt.Fprintln(cl.out, cl.catalog.Message())
	} else {
		cl.printListing()
	}

	fmt.Fprint(cl.out, "> ")
	for cl.in.Scan() {
		line := strings.TrimSpace(cl.in.Text())
		if len(line) == 0 {
			fmt.Fprint(cl.out, "> ")
			continue
		}
		verb, rest := splitCommand(line)
		if verb == "quit" || verb == "exit" {
			return nil
		}
		cl.dispatch(ctx, verb, rest)
		fmt.Fprint(cl.out, "> ")
	}
	return cl.in.Err()
}

func (cl *Console) dispatch(ctx context.Context, verb, rest string) {
	switch verb {
	case "help":
		fmt.Fprintln(cl.out, consoleHelp)
	case "list":
		cl.refreshAndPrint(ctx)
	case "search":
		cl.catalog.SetSearchTerm(rest)
		cl.printListing()
	case "genre":
		cl.applyFilter(ctx, FilterGenre, rest)
	case "author":
		cl.applyFilter(ctx, FilterAuthor, rest)
	case "perpage":
		cl.applyFilter(ctx, FilterPageSize, rest)
	case "page":
		cl.applyFilter(ctx, FilterPage, rest)
	case "next":
		cl.move(ctx, 1)
	case "prev":
		cl.move(ctx, -1)
	case "open":
		cl.openBook(ctx, rest)
	case "review":
		cl.submitReview(ctx, rest)
	case "add":
		cl.addBook(ctx)
	case "login":
		cl.login(ctx)
	case "register":
		cl.register(ctx)
	case "logout":
		cl.session.Logout(ctx)
		fmt.Fprintln(cl.out, "Logged out.")
	case "whoami":
		cl.whoami()
	default:
		fmt.Fprintf(cl.out, "unknown command %q, type help\n", verb)
	}
}

func (cl *Console) applyFilter(ctx context.Context, key FilterKey, value string) {
	fmt.Fprintln(cl.out, "Loading books...")
	if err := cl.catalog.SetFilter(ctx, key, value); err != nil {
		var missing missingFieldError
		if errors.As(err, &missing) {
			fmt.Fprintln(cl.out, missing.Error())
			return
		}
		fmt.Fprintln(cl.out, cl.catalog.Message())
		return
	}
	cl.printListing()
}

func (cl *Console) move(ctx context.Context, delta int) {
	page := cl.catalog.Query().Page + delta
	if page < 1 || (cl.catalog.TotalPages() > 0 && page > cl.catalog.TotalPages()) {
		fmt.Fprintln(cl.out, "No such page.")
		return
	}
	cl.applyFilter(ctx, FilterPage, strconv.Itoa(page))
}

func (cl *Console) refreshAndPrint(ctx context.Context) {
	fmt.Fprintln(cl.out, "Loading books...")
	if err := cl.catalog.Refresh(ctx); err != nil {
		fmt.Fprintln(cl.out, cl.catalog.Message())
		return
	}
	cl.printListing()
}

func (cl *Console) printListing() {
	fmt.Fprintln(cl.out, RenderBookList(cl.catalog.Visible()))
	if pagination := RenderPagination(cl.catalog.Query().Page, cl.catalog.TotalPages()); len(pagination) != 0 {
		fmt.Fprintln(cl.out, pagination)
	}
}

func (cl *Console) openBook(ctx context.Context, id string) {
	if len(id) == 0 {
		fmt.Fprintln(cl.out, missingFieldError("a book id").Error())
		return
	}
	fmt.Fprintln(cl.out, "Loading book details...")
	err := cl.detail.Load(ctx, id)
	if errors.Is(err, ErrBookNotFound) {
		fmt.Fprintln(cl.out, "Book not found. Type list to go back to the books.")
		return
	}
	if err != nil {
		fmt.Fprintln(cl.out, "Failed to fetch book details. Type list to go back to the books.")
		return
	}
	fmt.Fprintln(cl.out, RenderBookDetail(cl.detail.Book(), cl.detail.Reviews()))
}

func (cl *Console) submitReview(ctx context.Context, rest string) {
	if !cl.session.IsAuthenticated() {
		fmt.Fprintln(cl.out, "Login to write a review.")
		return
	}
	ratingArg, text := splitCommand(rest)
	rating, err := strconv.Atoi(ratingArg)
	if err != nil {
		fmt.Fprintln(cl.out, errRatingOutOfRange.Error())
		return
	}
	if err = ValidateReviewRequest(rating, text); err != nil {
		fmt.Fprintln(cl.out, err.Error())
		return
	}
	fmt.Fprintln(cl.out, "Submitting...")
	if err = cl.detail.SubmitReview(ctx, rating, text); err != nil {
		fmt.Fprintln(cl.out, messageFromError(err, "Failed to add review"))
		return
	}
	fmt.Fprintln(cl.out, "Review added successfully!")
	fmt.Fprintln(cl.out, RenderBookDetail(cl.detail.Book(), cl.detail.Reviews()))
}

func (cl *Console) addBook(ctx context.Context) {
	if !cl.session.IsAuthenticated() {
		fmt.Fprintln(cl.out, "Login to add a book.")
		return
	}
	title := cl.prompt("Title: ")
	author := cl.prompt("Author: ")
	genre := cl.prompt("Genre: ")
	if err := ValidateAddBookRequest(title, author, genre); err != nil {
		fmt.Fprintln(cl.out, err.Error())
		return
	}
	fmt.Fprintln(cl.out, "Submitting...")
	if err := cl.api.AddBook(ctx, title, author, genre); err != nil {
		fmt.Fprintln(cl.out, messageFromError(err, "Failed to add book"))
		return
	}
	fmt.Fprintln(cl.out, "Book added successfully!")
	cl.refreshAndPrint(ctx)
}

func (cl *Console) login(ctx context.Context) {
	email := cl.prompt("Email: ")
	password := cl.prompt("Password: ")
	fmt.Fprintln(cl.out, "Signing in...")
	result := cl.session.Login(ctx, email, password)
	fmt.Fprintln(cl.out, result.Message)
}

func (cl *Console) register(ctx context.Context) {
	name := cl.prompt("Name: ")
	email := cl.prompt("Email: ")
	password := cl.prompt("Password: ")
	fmt.Fprintln(cl.out, "Creating account...")
	result := cl.session.Register(ctx, name, email, password)
	fmt.Fprintln(cl.out, result.Message)
	if result.Success {
		fmt.Fprintln(cl.out, "You can now login with your credentials.")
	}
}

func (cl *Console) whoami() {
	if !cl.session.IsAuthenticated() {
		fmt.Fprintln(cl.out, "Not logged in.")
		return
	}
	user := cl.session.User()
	fmt.Fprintf(cl.out, "%s <%s>\n", user.Name, user.Email)
}

func (cl *Console) prompt(label string) string {
	fmt.Fprint(cl.out, label)
	if !cl.in.Scan() {
		return ""
	}
	return strings.TrimSpace(cl.in.Text())
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
