package ui

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/petms/internal/auth"
	"github.com/me/petms/internal/photo"
	"github.com/me/petms/internal/store"
	"github.com/me/petms/pkg/model"
)

// UI handles the web user interface.
type UI struct {
	store     store.Store
	sessions  *SessionManager
	auth      *auth.Service
	photos    *photo.Store
	logger    *slog.Logger
	startTime time.Time
	secure    bool // Use secure cookies (HTTPS)
}

// Config holds UI configuration.
type Config struct {
	Secure bool // Use secure cookies for HTTPS
}

// New creates a new UI handler.
func New(st store.Store, authSvc *auth.Service, photos *photo.Store, logger *slog.Logger, cfg Config) *UI {
	return &UI{
		store:     st,
		sessions:  NewSessionManager(st),
		auth:      authSvc,
		photos:    photos,
		logger:    logger.With("component", "ui"),
		startTime: time.Now(),
		secure:    cfg.Secure,
	}
}

// Sessions exposes the session manager (shared with the API middleware).
func (ui *UI) Sessions() *SessionManager {
	return ui.sessions
}

// --- Auth pages ---

// HandleLogin renders the login page.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title": "Login - PetMS",
		"Error": r.URL.Query().Get("error"),
		"Info":  r.URL.Query().Get("info"),
	}
	ui.render(w, "login", data)
}

// HandleLoginPost processes the login form: credential check with lockout,
// then single-session takeover, then the new session.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.redirectLogin(w, r, "Invalid request")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := strings.TrimSpace(r.FormValue("password"))

	outcome, err := ui.auth.AttemptLogin(r.Context(), username, password)
	if err != nil {
		ui.logger.Error("login attempt failed", "username", username, "error", err)
		ui.redirectLogin(w, r, "Something went wrong. Please try again.")
		return
	}

	switch outcome.Kind {
	case model.OutcomeRejected:
		msg := outcome.Reason
		if outcome.RemainingAttempts >= 0 {
			msg = fmt.Sprintf("Invalid login (%d %s left).",
				outcome.RemainingAttempts, plural("attempt", outcome.RemainingAttempts))
		}
		ui.logger.Info("login rejected", "username", username)
		ui.redirectLogin(w, r, msg)
		return

	case model.OutcomeLocked:
		ui.redirectLogin(w, r, fmt.Sprintf("Account locked: %d %s.",
			outcome.RemainingMinutes, plural("minute", outcome.RemainingMinutes)))
		return
	}

	user := outcome.User

	sess, err := ui.sessions.CreateSession(r.Context(), user)
	if err != nil {
		ui.logger.Error("create session failed", "username", username, "error", err)
		ui.redirectLogin(w, r, "Session creation failed")
		return
	}

	// Revoke the previous session (record + live connection), then record
	// the new one. A failure here means the account still points at the
	// old session, so the fresh record must not be handed out.
	if err := ui.auth.EstablishSession(r.Context(), user, sess.ID); err != nil {
		ui.logger.Error("establish session failed", "username", username, "error", err)
		_ = ui.sessions.DeleteSession(r.Context(), sess.ID)
		ui.redirectLogin(w, r, "Login failed. Please try again.")
		return
	}

	SetSessionCookie(w, sess, ui.secure)

	ui.logger.Info("user logged in", "username", user.Username, "session", sess.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleRegister renders the registration page.
func (ui *UI) HandleRegister(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":    "Register - PetMS",
		"Error":    r.URL.Query().Get("error"),
		"Username": r.URL.Query().Get("username"),
	}
	ui.render(w, "register", data)
}

// HandleRegisterPost processes the registration form.
func (ui *UI) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/register?error=Invalid+request", http.StatusSeeOther)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := strings.TrimSpace(r.FormValue("password"))
	confirm := strings.TrimSpace(r.FormValue("confirmPassword"))

	_, err := ui.auth.CreateUser(r.Context(), username, password, confirm, model.RoleStaff)
	if err != nil {
		msg := "Registration failed."
		if apiErr, ok := err.(*model.APIError); ok {
			msg = apiErr.Message
		} else {
			ui.logger.Error("register failed", "username", username, "error", err)
		}
		http.Redirect(w, r, "/register?error="+url.QueryEscape(msg)+"&username="+url.QueryEscape(username), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/login?info="+url.QueryEscape("Registration successful! You can log in now."), http.StatusSeeOther)
}

// HandleLogout tears down the session and clears the cookie. The live
// registry is left alone; it reaps the connection when the stream closes.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, _ := ui.sessions.GetSessionFromRequest(r); sess != nil {
		user, err := ui.store.GetUser(r.Context(), sess.UserID)
		if err != nil {
			ui.logger.Warn("logout user lookup failed", "session", sess.ID, "error", err)
		}
		if err := ui.auth.TeardownSession(r.Context(), user, sess.ID); err != nil {
			ui.logger.Warn("teardown session failed", "session", sess.ID, "error", err)
		}
		ui.logger.Info("user logged out", "username", sess.Username, "session", sess.ID)
	}
	ClearSessionCookie(w)
	http.Redirect(w, r, "/login?info=Goodbye", http.StatusSeeOther)
}

func (ui *UI) redirectLogin(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// --- Dashboard ---

// HandleDashboard renders the main dashboard.
func (ui *UI) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	recent, total, err := ui.store.ListOwners(r.Context(), model.ListOptions{Limit: 5})
	if err != nil {
		ui.renderError(w, "Error loading dashboard.", err)
		return
	}

	active := 0
	for _, o := range recent {
		if o.Status == model.OwnerActive {
			active++
		}
	}

	data := map[string]any{
		"Title":        "Dashboard - PetMS",
		"Session":      sess,
		"OwnerCount":   total,
		"RecentOwners": recent,
		"ActiveRecent": active,
		"Uptime":       time.Since(ui.startTime).Round(time.Second).String(),
	}
	ui.render(w, "dashboard", data)
}

// --- Owner pages ---

// ownerListQuery captures the list parameters the owner pages preserve
// across redirects.
type ownerListQuery struct {
	Page   int
	Limit  int
	Search string
}

func parseOwnerListQuery(r *http.Request) ownerListQuery {
	q := ownerListQuery{Page: 1, Limit: 6}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	q.Search = strings.Join(strings.Fields(r.URL.Query().Get("search")), " ")
	return q
}

// encode rebuilds the query string, optionally with a flash message.
func (q ownerListQuery) encode(extra url.Values) string {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit != 6 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for key, vals := range extra {
		for _, val := range vals {
			v.Add(key, val)
		}
	}
	if enc := v.Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}

// redirectOwners sends the browser back to the owner list, keeping the
// page/limit/search context and carrying a flash message.
func (ui *UI) redirectOwners(w http.ResponseWriter, r *http.Request, success bool, msg string) {
	q := parseOwnerListQuery(r)
	key := "error"
	if success {
		key = "success"
	}
	http.Redirect(w, r, "/owners"+q.encode(url.Values{key: {msg}}), http.StatusSeeOther)
}

// HandleOwnerList renders the paginated, searchable owner list.
func (ui *UI) HandleOwnerList(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	q := parseOwnerListQuery(r)

	opts := model.ListOptions{
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
		Search: q.Search,
	}
	opts.Clamp()

	owners, total, err := ui.store.ListOwners(r.Context(), opts)
	if err != nil {
		ui.renderError(w, "Error fetching owners list.", err)
		return
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	data := map[string]any{
		"Title":        "Owners - PetMS",
		"Session":      sess,
		"Owners":       owners,
		"CurrentPage":  q.Page,
		"TotalPages":   totalPages,
		"TotalRecords": total,
		"Search":       q.Search,
		"Limit":        opts.Limit,
		"Error":        r.URL.Query().Get("error"),
		"Success":      r.URL.Query().Get("success"),
	}
	ui.render(w, "owners_list", data)
}

// HandleOwnerNew renders the create form.
func (ui *UI) HandleOwnerNew(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":   "Add Owner - PetMS",
		"Session": SessionFromContext(r.Context()),
		"Owner":   &model.Owner{Status: model.OwnerActive},
		"Error":   r.URL.Query().Get("error"),
	}
	ui.render(w, "owner_form", data)
}

// HandleOwnerCreate processes the create form, including a photo supplied
// either as a multipart file upload or a base64 camera capture.
func (ui *UI) HandleOwnerCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(photo.MaxPhotoBytes); err != nil {
		ui.redirectOwners(w, r, false, "Invalid form submission")
		return
	}

	owner := &model.Owner{
		ID:       "owner_" + uuid.New().String(),
		OwnerRef: newOwnerRef(),
	}
	ui.formOwner(r, owner)

	if errs := owner.Validate(); len(errs) > 0 {
		ui.redirectOwners(w, r, false, errs[0].Message)
		return
	}

	existing, err := ui.store.GetOwnerByEmail(r.Context(), owner.Email, "")
	if err != nil {
		ui.renderError(w, "Error creating owner.", err)
		return
	}
	if existing != nil {
		ui.redirectOwners(w, r, false, "Email already exists")
		return
	}

	photoFile, err := ui.savePhotoFromForm(r)
	if err != nil {
		ui.redirectOwners(w, r, false, photoErrorMessage(err))
		return
	}
	owner.PhotoFile = photoFile
	owner.QRCode = owner.OwnerRef

	now := time.Now().UTC()
	owner.CreatedAt = now
	owner.UpdatedAt = now

	if err := ui.store.CreateOwner(r.Context(), owner); err != nil {
		// The record never landed; don't leak the stored photo.
		if photoFile != "" {
			_ = ui.photos.Delete(photoFile)
		}
		ui.renderError(w, "Error creating owner.", err)
		return
	}

	ui.redirectOwners(w, r, true, "Owner added successfully!")
}

// HandleOwnerEdit renders the edit form.
func (ui *UI) HandleOwnerEdit(w http.ResponseWriter, r *http.Request) {
	owner, ok := ui.loadOwner(w, r)
	if !ok {
		return
	}

	data := map[string]any{
		"Title":   "Edit Owner - PetMS",
		"Session": SessionFromContext(r.Context()),
		"Owner":   owner,
		"Edit":    true,
		"Error":   r.URL.Query().Get("error"),
	}
	ui.render(w, "owner_form", data)
}

// HandleOwnerUpdate processes the edit form. Photo handling mirrors the
// create flow, plus an explicit delete option.
func (ui *UI) HandleOwnerUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ui.loadOwner(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(photo.MaxPhotoBytes); err != nil {
		ui.redirectOwners(w, r, false, "Invalid form submission")
		return
	}

	oldPhoto := owner.PhotoFile
	ui.formOwner(r, owner)
	owner.PhotoFile = oldPhoto

	if errs := owner.Validate(); len(errs) > 0 {
		ui.redirectOwners(w, r, false, "Validation failed. Please check the required fields.")
		return
	}

	existing, err := ui.store.GetOwnerByEmail(r.Context(), owner.Email, owner.ID)
	if err != nil {
		ui.renderError(w, "Error updating owner.", err)
		return
	}
	if existing != nil {
		ui.redirectOwners(w, r, false, "Email already exists")
		return
	}

	newPhoto, err := ui.savePhotoFromForm(r)
	if err != nil {
		ui.redirectOwners(w, r, false, photoErrorMessage(err))
		return
	}
	switch {
	case newPhoto != "":
		_ = ui.photos.Delete(oldPhoto)
		owner.PhotoFile = newPhoto
	case r.FormValue("deleteImage") == "true":
		_ = ui.photos.Delete(oldPhoto)
		owner.PhotoFile = ""
	}

	owner.UpdatedAt = time.Now().UTC()
	if err := ui.store.UpdateOwner(r.Context(), owner); err != nil {
		ui.renderError(w, "Error updating owner.", err)
		return
	}

	ui.redirectOwners(w, r, true, "Owner updated successfully!")
}

// HandleOwnerDelete removes an owner and its photo.
func (ui *UI) HandleOwnerDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ui.loadOwner(w, r)
	if !ok {
		return
	}

	if err := ui.store.DeleteOwner(r.Context(), owner.ID); err != nil {
		ui.renderError(w, "Error deleting owner.", err)
		return
	}
	if owner.PhotoFile != "" {
		if err := ui.photos.Delete(owner.PhotoFile); err != nil {
			ui.logger.Warn("delete photo failed", "owner", owner.ID, "error", err)
		}
	}

	ui.redirectOwners(w, r, true, "Owner deleted.")
}

// loadOwner fetches the owner named in the URL, handling the not-found
// redirect. The bool reports whether the caller should continue.
func (ui *UI) loadOwner(w http.ResponseWriter, r *http.Request) (*model.Owner, bool) {
	id := chi.URLParam(r, "id")
	owner, err := ui.store.GetOwner(r.Context(), id)
	if err != nil {
		ui.renderError(w, "Error loading owner.", err)
		return nil, false
	}
	if owner == nil {
		ui.redirectOwners(w, r, false, "Owner not found")
		return nil, false
	}
	return owner, true
}

// formOwner fills owner fields from the posted form.
func (ui *UI) formOwner(r *http.Request, owner *model.Owner) {
	owner.FirstName = r.FormValue("firstName")
	owner.LastName = r.FormValue("lastName")
	owner.Gender = r.FormValue("gender")
	owner.CivilStatus = r.FormValue("civilStatus")
	owner.Email = r.FormValue("email")
	owner.Phone = r.FormValue("phone")
	owner.Phone2 = r.FormValue("phone2")
	owner.Address = r.FormValue("address")
	owner.EmergencyContactPerson = r.FormValue("emergencyContactPerson")
	owner.EmergencyContactNumber = r.FormValue("emergencyContactNumber")
	if status := r.FormValue("status"); status != "" {
		owner.Status = model.OwnerStatus(status)
	}

	owner.Birthdate = nil
	if bd := r.FormValue("birthdate"); bd != "" {
		if t, err := time.Parse("2006-01-02", bd); err == nil {
			owner.Birthdate = &t
		}
	}

	owner.Normalize()
}

// savePhotoFromForm stores a photo from the "photo" file field or, failing
// that, the "cameraImage" base64 field. Returns the stored filename, empty
// when neither was supplied.
func (ui *UI) savePhotoFromForm(r *http.Request) (string, error) {
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		return ui.photos.SaveUpload(file, header)
	}

	if cam := r.FormValue("cameraImage"); cam != "" && cam != "false" && strings.HasPrefix(cam, "data:image") {
		return ui.photos.SaveBase64(cam)
	}

	return "", nil
}

func photoErrorMessage(err error) string {
	switch err {
	case photo.ErrTooLarge:
		return "Photo is too large."
	case photo.ErrUnsupportedType:
		return "Unsupported image type."
	default:
		return "Could not save photo."
	}
}

// newOwnerRef generates the short public id printed on owner cards.
func newOwnerRef() string {
	return strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// --- Rendering ---

func (ui *UI) render(w http.ResponseWriter, template string, data map[string]any) {
	ui.renderStatus(w, http.StatusOK, template, data)
}

func (ui *UI) renderStatus(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, message string, err error) {
	ui.logger.Error(message, "error", err)
	data := map[string]any{
		"Title":   "Error - PetMS",
		"Message": message,
	}
	ui.renderStatus(w, http.StatusInternalServerError, "error", data)
}
