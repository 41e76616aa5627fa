package app

import (
	"context"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/auth"
	"github.com/grbellar/lore-tracker-sub000/internal/authpw"
	"github.com/grbellar/lore-tracker-sub000/internal/config"
	"github.com/grbellar/lore-tracker-sub000/internal/email"
	"github.com/grbellar/lore-tracker-sub000/internal/export"
	"github.com/grbellar/lore-tracker-sub000/internal/gitrepo"
	"github.com/grbellar/lore-tracker-sub000/internal/graph"
	"github.com/grbellar/lore-tracker-sub000/internal/lore"
	"github.com/grbellar/lore-tracker-sub000/internal/media"
	"github.com/grbellar/lore-tracker-sub000/internal/search"
	"github.com/grbellar/lore-tracker-sub000/internal/store"
	"github.com/grbellar/lore-tracker-sub000/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

// accountStore is the slice of the Postgres store the service uses for
// identity and token revocation.
type accountStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	DeleteUser(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

// RefreshStore persists refresh sessions. Redis backs it when REDIS_URL is
// set; the Postgres store covers it otherwise. Lookup may return only the
// user id.
type RefreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAllRefreshSessions(ctx context.Context, userID string) error
}

type graphStore interface {
	VerifyOwnership(ctx context.Context, label graph.Label, nodeID string) bool
	EraseUserData(ctx context.Context, userID string) (int, error)
	Ping(ctx context.Context) error
}

type loreStore interface {
	CreateCharacter(ctx context.Context, name, summary string, aliases []string) (lore.Character, error)
	ListCharacters(context.Context) ([]lore.Character, error)
	GetCharacter(context.Context, string) (lore.Character, error)
	UpdateCharacter(ctx context.Context, id, name, summary string, aliases []string) (lore.Character, error)
	DeleteCharacter(context.Context, string) error
	SetRelation(ctx context.Context, fromID, toID, kind string) error
	RemoveRelation(ctx context.Context, fromID, toID string) error
	ListRelations(context.Context, string) ([]lore.Relation, error)
	CreateLocation(ctx context.Context, name, summary string) (lore.Location, error)
	ListLocations(context.Context) ([]lore.Location, error)
	GetLocation(context.Context, string) (lore.Location, error)
	UpdateLocation(ctx context.Context, id, name, summary string) (lore.Location, error)
	DeleteLocation(context.Context, string) error
	CreateItem(ctx context.Context, name, summary string) (lore.Item, error)
	ListItems(context.Context) ([]lore.Item, error)
	GetItem(context.Context, string) (lore.Item, error)
	UpdateItem(ctx context.Context, id, name, summary string) (lore.Item, error)
	DeleteItem(context.Context, string) error
	SetHolder(ctx context.Context, itemID, characterID string) error
	ClearHolder(ctx context.Context, itemID string) error
	CreateMoment(ctx context.Context, title, summary, when string) (lore.Moment, error)
	ListMoments(context.Context) ([]lore.Moment, error)
	GetMoment(context.Context, string) (lore.Moment, error)
	UpdateMoment(ctx context.Context, id, title, summary, when string) (lore.Moment, error)
	DeleteMoment(context.Context, string) error
	MoveMoment(ctx context.Context, id, afterID string) error
	AddCast(ctx context.Context, momentID, characterID string) error
	RemoveCast(ctx context.Context, momentID, characterID string) error
	SetMomentLocation(ctx context.Context, momentID, locationID string) error
	ClearMomentLocation(ctx context.Context, momentID string) error
	CreateNote(ctx context.Context, title string) (lore.Note, error)
	ListNotes(context.Context) ([]lore.Note, error)
	GetNote(context.Context, string) (lore.Note, error)
	UpdateNote(ctx context.Context, id, title string) (lore.Note, error)
	DeleteNote(context.Context, string) error
	AddMention(ctx context.Context, noteID, label, targetID string) error
	RemoveMention(ctx context.Context, noteID, targetID string) error
	ListMentions(context.Context, string) ([]lore.Mention, error)
	ListBacklinks(context.Context, string) ([]lore.Note, error)
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexEntity(e search.EntityRecord)
	DeleteEntity(id string)
	DeleteUserEntities(userID string)
}

type mediaStore interface {
	Put(ctx context.Context, userID, label, nodeID, contentType string, size int64, r io.Reader) error
	Get(ctx context.Context, userID, label, nodeID string) (io.ReadCloser, string, int64, error)
	Remove(ctx context.Context, userID, label, nodeID string) error
	RemoveUser(ctx context.Context, userID string) (int, error)
}

type noteRepo interface {
	EnsureRepo(noteID string, initial gitrepo.Content, author string) error
	SaveContent(noteID string, content gitrepo.Content, author, message string) (gitrepo.CommitInfo, error)
	HeadContent(noteID string) (gitrepo.Content, gitrepo.CommitInfo, error)
	ContentAt(noteID, hash string) (gitrepo.Content, error)
	History(noteID string, limit int) ([]gitrepo.CommitInfo, error)
	RemoveRepo(noteID string) error
}

type passwordAuth interface {
	SignUp(ctx context.Context, req authpw.SignUpRequest) (*authpw.SignUpResponse, error)
	SignIn(ctx context.Context, req authpw.SignInRequest) (*authpw.SignInResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req authpw.ResetPasswordRequest) (string, error)
}

type mailer interface {
	IsConfigured() bool
	SendVerificationEmail(to, userName, verificationURL string) error
	SendPasswordResetEmail(to, userName, resetURL string) error
}

type exporter interface {
	Bible(ctx context.Context, req export.Request) (*export.Result, error)
	Takeout(ctx context.Context, owner string) (*export.Result, error)
}

type Service struct {
	cfg     config.Config
	store   accountStore
	refresh RefreshStore
	graph   graphStore
	lore    loreStore
	search  searchService
	media   mediaStore
	notes   noteRepo
	export  exporter
	auth    passwordAuth
	email   mailer
}

// New wires the service from its backing stores. mediaStore may be nil when
// MinIO is not configured; the image endpoints answer 503 in that case.
func New(cfg config.Config, accounts *store.PostgresStore, refresh RefreshStore, graphStore *graph.Store, loreStore *lore.Store, searchSvc *search.Service, mediaStore *media.Store, notes *gitrepo.Service, authSvc *authpw.Service, emailSvc *email.Service) *Service {
	svc := &Service{
		cfg:     cfg,
		store:   accounts,
		refresh: refresh,
		graph:   graphStore,
		lore:    loreStore,
		search:  searchSvc,
		notes:   notes,
	}
	if mediaStore != nil {
		svc.media = mediaStore
	}
	if authSvc != nil {
		svc.auth = authSvc
	}
	if emailSvc != nil {
		svc.email = emailSvc
	}
	svc.export = export.NewService(&exportAdapter{lore: svc.lore, notes: svc.notes})
	return svc
}

// CreateSession loads the account and issues a fresh token pair for it.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The refresh store may carry only the user id; reload the account.
	account, err := s.store.GetUserByID(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, account)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// RevokeUserSessions drops every refresh session the user holds. A password
// reset calls this so old refresh tokens stop working.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) error {
	return s.refresh.RevokeAllRefreshSessions(ctx, userID)
}

func (s *Service) AuthPasswordService() passwordAuth {
	return s.auth
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// MailVerification sends the signup confirmation link in the background. A
// failure is logged and the signup stands.
func (s *Service) MailVerification(ctx context.Context, userID, token string) {
	if !s.SMTPConfigured() || token == "" {
		return
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("verification mail lookup for %s: %v", userID, err)
		return
	}
	link := s.cfg.AppURL + "/verify-email?token=" + url.QueryEscape(token)
	go func() {
		if err := s.email.SendVerificationEmail(user.Email, user.DisplayName, link); err != nil {
			log.Printf("verification mail to %s: %v", user.Email, err)
		}
	}()
}

// MailPasswordReset sends the reset link for the account, when one exists.
func (s *Service) MailPasswordReset(ctx context.Context, emailAddr, token string) {
	if !s.SMTPConfigured() || token == "" {
		return
	}
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return
	}
	link := s.cfg.AppURL + "/reset-password?token=" + url.QueryEscape(token)
	go func() {
		if err := s.email.SendPasswordResetEmail(user.Email, user.DisplayName, link); err != nil {
			log.Printf("password reset mail to %s: %v", user.Email, err)
		}
	}()
}

func (s *Service) Me(ctx context.Context, session Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"userId":        user.ID,
		"name":          user.DisplayName,
		"email":         user.Email,
		"emailVerified": user.IsEmailVerified,
		"createdAt":     user.CreatedAt.Format(time.RFC3339),
	}, nil
}

// DeleteAccount erases everything the user owns: graph nodes, note
// repositories, media, search entries, refresh sessions, and finally the
// account row. It reports the number of graph nodes removed. Side stores are
// cleaned best-effort once the graph erase has succeeded.
func (s *Service) DeleteAccount(ctx context.Context, session Session) (map[string]any, error) {
	// Note ids must be collected before the erase removes them.
	notes, err := s.lore.ListNotes(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := s.graph.EraseUserData(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	for _, note := range notes {
		if err := s.notes.RemoveRepo(note.ID); err != nil {
			log.Printf("delete account %s: remove note repo %s: %v", session.UserID, note.ID, err)
		}
	}
	if s.media != nil {
		if _, err := s.media.RemoveUser(ctx, session.UserID); err != nil {
			log.Printf("delete account %s: remove media: %v", session.UserID, err)
		}
	}
	s.search.DeleteUserEntities(session.UserID)

	if err := s.refresh.RevokeAllRefreshSessions(ctx, session.UserID); err != nil {
		log.Printf("delete account %s: revoke sessions: %v", session.UserID, err)
	}
	_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)

	if err := s.store.DeleteUser(ctx, session.UserID); err != nil {
		return nil, err
	}

	return map[string]any{"deleted": deleted}, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyChecks probes each backing store the API cannot serve without. The
// sessions check appears when the refresh store is pingable.
func (s *Service) ReadyChecks(ctx context.Context) map[string]error {
	checks := map[string]error{
		"database": s.store.Ping(ctx),
		"graph":    s.graph.Ping(ctx),
	}
	if p, ok := s.refresh.(pinger); ok {
		checks["sessions"] = p.Ping(ctx)
	}
	return checks
}
