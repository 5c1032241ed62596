// Package auth implements two-factor biometric enrollment and
// verification. A user is verified only when both the face match and
// the voice match clear their thresholds. Enrollment of new users is
// gated by a short-lived grant minted after a successful verification,
// so the very first user must be created through BootstrapAdmin.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/biogate/biogate/internal/logging"
	"github.com/biogate/biogate/internal/match"
	"github.com/biogate/biogate/internal/store"
)

var (
	// ErrAlreadyBootstrapped means the store already holds at least one
	// user, so the bootstrap path is closed.
	ErrAlreadyBootstrapped = errors.New("store already bootstrapped")
	// ErrUnauthorized means the enrollment grant is missing, invalid,
	// expired or lacks the required role.
	ErrUnauthorized = errors.New("invalid enrollment grant")
	// ErrEmptySample means a biometric input was empty and was rejected
	// before extraction.
	ErrEmptySample = errors.New("biometric sample is empty")
)

// Extractor turns a raw media sample into an embedding vector.
// Implementations call out to an embedding service, tests substitute
// fakes.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]float32, error)
}

// Policy carries the decision thresholds and enrollment rules.
type Policy struct {
	// FaceThreshold and VoiceThreshold are minimum cosine similarities.
	// A modality passes when its score is >= the threshold.
	FaceThreshold  float64
	VoiceThreshold float64
	// RequireAdminRole restricts enrollment grants to admin users.
	// When false any verified user may authorize enrollments.
	RequireAdminRole bool
	// ExtractTimeout bounds the combined embedding extraction of one
	// request. Zero means no timeout.
	ExtractTimeout time.Duration
}

// Result is the outcome of a verification attempt.
type Result struct {
	Username   string
	Granted    bool
	FaceOK     bool
	FaceScore  float64
	VoiceOK    bool
	VoiceScore float64
	// Grant is an enrollment grant token, set only when access was
	// granted.
	Grant string
}

// Service implements enrollment and verification on top of a template
// store and a pair of embedding extractors.
type Service struct {
	store  store.TemplateStore
	face   Extractor
	voice  Extractor
	grants *GrantIssuer
	policy Policy
	log    logging.Logger

	// bootstrapMu serializes the empty-store check against the first
	// create so concurrent bootstraps cannot both succeed.
	bootstrapMu sync.Mutex
}

// NewService wires a Service from its dependencies.
func NewService(st store.TemplateStore, face, voice Extractor, grants *GrantIssuer, policy Policy, log logging.Logger) *Service {
	return &Service{
		store:  st,
		face:   face,
		voice:  voice,
		grants: grants,
		policy: policy,
		log:    log,
	}
}

// BootstrapAdmin enrolls the very first user with the admin role. It
// fails with ErrAlreadyBootstrapped when any user already exists and
// returns the stored metadata on success.
func (s *Service) BootstrapAdmin(ctx context.Context, username string, image, audio []byte) (map[string]string, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}

	// Early check before extraction runs. The authoritative check is
	// repeated under bootstrapMu below.
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if len(users) > 0 {
		return nil, ErrAlreadyBootstrapped
	}

	faceVec, voiceVec, err := s.extractPair(ctx, image, audio)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		store.MetaUsername:  username,
		store.MetaRole:      store.RoleAdmin,
		store.MetaCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	users, err = s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if len(users) > 0 {
		return nil, ErrAlreadyBootstrapped
	}

	tpl := &store.Template{
		Username: username,
		FaceVec:  faceVec,
		VoiceVec: voiceVec,
		Meta:     meta,
	}
	if err := s.store.Create(ctx, tpl); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "bootstrapped admin user", "username", username)
	return meta, nil
}

// Verify checks a face and voice sample against the stored template of
// the named user. Access is granted only when both modalities pass
// their thresholds. The store is never modified; on success the result
// carries a fresh enrollment grant.
func (s *Service) Verify(ctx context.Context, username string, image, audio []byte) (*Result, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}

	tpl, err := s.store.Read(ctx, username)
	if err != nil {
		return nil, err
	}

	faceVec, voiceVec, err := s.extractPair(ctx, image, audio)
	if err != nil {
		return nil, err
	}

	faceOK, faceScore, err := match.Decide(faceVec, tpl.FaceVec, s.policy.FaceThreshold)
	if err != nil {
		return nil, fmt.Errorf("matching face: %w", err)
	}
	voiceOK, voiceScore, err := match.Decide(voiceVec, tpl.VoiceVec, s.policy.VoiceThreshold)
	if err != nil {
		return nil, fmt.Errorf("matching voice: %w", err)
	}

	res := &Result{
		Username:   tpl.Username,
		Granted:    faceOK && voiceOK,
		FaceOK:     faceOK,
		FaceScore:  faceScore,
		VoiceOK:    voiceOK,
		VoiceScore: voiceScore,
	}

	if res.Granted {
		grant, err := s.grants.Issue(tpl.Username, tpl.Meta[store.MetaRole])
		if err != nil {
			return nil, fmt.Errorf("issuing enrollment grant: %w", err)
		}
		res.Grant = grant
	}

	s.log.Info(ctx, "verification decided",
		"username", tpl.Username,
		"granted", res.Granted,
		"face_ok", faceOK,
		"face_score", faceScore,
		"voice_ok", voiceOK,
		"voice_score", voiceScore,
	)
	return res, nil
}

// Enroll stores a template for a new user. The grant token must come
// from a recent successful verification; its subject is recorded as the
// creator of the new user.
func (s *Service) Enroll(ctx context.Context, grantToken, username string, image, audio []byte) (map[string]string, error) {
	grant, err := s.grants.Validate(grantToken)
	if err != nil {
		return nil, err
	}
	if s.policy.RequireAdminRole && grant.Role != store.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role required", ErrUnauthorized)
	}

	username, err = store.CleanUsername(username)
	if err != nil {
		return nil, err
	}

	faceVec, voiceVec, err := s.extractPair(ctx, image, audio)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		store.MetaUsername:  username,
		store.MetaRole:      store.RoleUser,
		store.MetaCreatedBy: grant.Username,
		store.MetaCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	tpl := &store.Template{
		Username: username,
		FaceVec:  faceVec,
		VoiceVec: voiceVec,
		Meta:     meta,
	}
	if err := s.store.Create(ctx, tpl); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "enrolled user",
		"username", username,
		"created_by", grant.Username,
	)
	return meta, nil
}

// ListUsers returns the usernames of all enrolled users.
func (s *Service) ListUsers(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Metadata returns the enrollment metadata of one user.
func (s *Service) Metadata(ctx context.Context, username string) (map[string]string, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}
	return s.store.Metadata(ctx, username)
}

// extractPair runs face then voice extraction under the configured
// timeout.
func (s *Service) extractPair(ctx context.Context, image, audio []byte) ([]float32, []float32, error) {
	if len(image) == 0 {
		return nil, nil, fmt.Errorf("%w: face image", ErrEmptySample)
	}
	if len(audio) == 0 {
		return nil, nil, fmt.Errorf("%w: voice recording", ErrEmptySample)
	}

	if s.policy.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.ExtractTimeout)
		defer cancel()
	}

	faceVec, err := s.face.Extract(ctx, image)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting face embedding: %w", err)
	}
	voiceVec, err := s.voice.Extract(ctx, audio)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting voice embedding: %w", err)
	}
	return faceVec, voiceVec, nil
}
