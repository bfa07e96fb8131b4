// Package service exposes the table operations a chat transport drives.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/wolfbot/internal/catalog"
	"github.com/ashureev/wolfbot/internal/domain"
	"github.com/ashureev/wolfbot/internal/game"
	"github.com/ashureev/wolfbot/internal/notify"
	"github.com/ashureev/wolfbot/internal/store"
)

var (
	// ErrForbidden is returned when the actor may not perform an operation.
	ErrForbidden = errors.New("not permitted")
	// ErrInvalidPreset is returned when a preset write carries no name.
	ErrInvalidPreset = errors.New("preset name is required")
	// ErrInvalidLevel is returned for an unknown operator level.
	ErrInvalidLevel = errors.New("invalid operator level")
)

// Service coordinates the registry, notifications and stored presets.
type Service struct {
	registry *game.Registry
	notifier *notify.Notifier
	repo     store.Repository
	logger   *slog.Logger
}

// New creates a Service. repo may be nil, in which case boards must be
// given as raw codes and nobody holds operator rights.
func New(registry *game.Registry, notifier *notify.Notifier, repo store.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		notifier: notifier,
		repo:     repo,
		logger:   logger,
	}
}

// Registry returns the underlying session registry.
func (s *Service) Registry() *game.Registry {
	return s.registry
}

// resolveBoard maps a preset name or alias to its codes. Anything else is
// returned unchanged and validated as raw codes by the registry.
func (s *Service) resolveBoard(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if s.repo == nil || ref == "" {
		return ref, nil
	}
	p, err := s.repo.GetPreset(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("lookup preset %q: %w", ref, err)
	}
	if p != nil {
		return p.Board, nil
	}
	return ref, nil
}

func (s *Service) operator(ctx context.Context, userID string) *domain.Operator {
	if s.repo == nil {
		return &domain.Operator{UserID: userID}
	}
	op, err := s.repo.GetOperator(ctx, userID)
	if err != nil {
		s.logger.Warn("Operator lookup failed", "user_id", userID, "error", err)
	}
	if op == nil {
		return &domain.Operator{UserID: userID}
	}
	return op
}

// CreateSession installs a board for the group and seats the creator.
// The session stays installed even if the creator's seat is refused.
func (s *Service) CreateSession(ctx context.Context, groupID, actor, boardSpec string, seat game.Seat) error {
	board, err := s.resolveBoard(ctx, boardSpec)
	if err != nil {
		return err
	}
	if _, err := s.registry.Create(groupID, board); err != nil {
		return err
	}
	return s.Join(ctx, groupID, actor, seat)
}

// Join seats userID in the group. A user may hold a slot in one group at a time.
func (s *Service) Join(_ context.Context, groupID, userID string, seat game.Seat) error {
	if _, err := s.registry.Join(groupID, userID, seat); err != nil {
		return err
	}
	s.logger.Info("Player joined", "group_id", groupID, "user_id", userID, "seat", seat)
	return nil
}

// Leave frees the user's slot.
func (s *Service) Leave(_ context.Context, groupID, userID string) (game.Seat, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return 0, err
	}
	seat, err := sess.Leave(userID)
	if err != nil {
		return 0, err
	}
	s.registry.Release(groupID, userID)
	s.logger.Info("Player left", "group_id", groupID, "user_id", userID, "seat", seat)
	return seat, nil
}

// Kick removes the occupant of target. Only the judge or a moderator may kick.
func (s *Service) Kick(ctx context.Context, groupID, actor string, target game.Target) (string, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return "", err
	}
	if sess.Judge() != actor && !s.operator(ctx, actor).CanModerate() {
		return "", ErrForbidden
	}
	userID, err := sess.Kick(target)
	if err != nil {
		return "", err
	}
	s.registry.Release(groupID, userID)
	s.logger.Info("Player kicked", "group_id", groupID, "user_id", userID, "by", actor, "target", target.String())
	return userID, nil
}

// Start deals roles and privately tells every player and the judge.
// Any seated member may start.
func (s *Service) Start(ctx context.Context, groupID, actor string) (notify.Report, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return notify.Report{}, err
	}
	if !sess.Has(actor) {
		return notify.Report{}, game.ErrNotJoined
	}
	deal, err := sess.Start()
	if err != nil {
		return notify.Report{}, err
	}
	s.logger.Info("Game started", "group_id", groupID, "deal_id", deal.ID, "players", len(deal.Players))
	return s.notifier.Dispatch(ctx, notify.ComposeDeal(deal)), nil
}

// Resend repeats the role messages of the current deal. Judge only.
func (s *Service) Resend(ctx context.Context, groupID, actor string) (notify.Report, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return notify.Report{}, err
	}
	deal, err := sess.Deal()
	if err != nil {
		return notify.Report{}, err
	}
	if deal.Judge != actor {
		return notify.Report{}, ErrForbidden
	}
	return s.notifier.Dispatch(ctx, notify.ComposeDeal(deal)), nil
}

// Redeal reshuffles roles for the running game and notifies everyone. Judge only.
func (s *Service) Redeal(ctx context.Context, groupID, actor string) (notify.Report, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return notify.Report{}, err
	}
	if err := s.requireRunningJudge(sess, actor); err != nil {
		return notify.Report{}, err
	}
	deal, err := sess.Redeal()
	if err != nil {
		return notify.Report{}, err
	}
	s.logger.Info("Roles redealt", "group_id", groupID, "deal_id", deal.ID)
	return s.notifier.Dispatch(ctx, notify.ComposeDeal(deal)), nil
}

// Kill marks seat dead and sends the judge the remaining alive roles. Judge only.
func (s *Service) Kill(ctx context.Context, groupID, actor string, seat game.Seat) (notify.Report, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return notify.Report{}, err
	}
	if err := s.requireRunningJudge(sess, actor); err != nil {
		return notify.Report{}, err
	}
	deal, err := sess.Kill(seat)
	if err != nil {
		return notify.Report{}, err
	}
	s.logger.Info("Player killed", "group_id", groupID, "seat", seat)
	return s.notifier.Dispatch(ctx, []notify.Message{notify.ComposeAlive(deal)}), nil
}

// Stop ends the game and returns the role reveal. The judge may stop; with
// force, a moderator may stop instead.
func (s *Service) Stop(ctx context.Context, groupID, actor string, force bool) (string, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return "", err
	}
	if sess.State() != game.Running {
		return "", game.ErrGameNotStarted
	}
	if force {
		if !s.operator(ctx, actor).CanModerate() {
			return "", ErrForbidden
		}
	} else if sess.Judge() != actor {
		return "", ErrForbidden
	}

	members := snapshotMembers(sess.Snapshot())
	reveal, err := sess.Stop()
	if err != nil {
		return "", err
	}
	s.registry.Release(groupID, members...)
	s.logger.Info("Game stopped", "group_id", groupID, "by", actor, "forced", force)
	return reveal, nil
}

// Clear removes everyone from the table. Judge or moderator; a running game
// needs force, which only a moderator may use.
func (s *Service) Clear(ctx context.Context, groupID, actor string, force bool) ([]string, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return nil, err
	}
	op := s.operator(ctx, actor)
	if force && !op.CanModerate() {
		return nil, ErrForbidden
	}
	if sess.Judge() != actor && !op.CanModerate() {
		return nil, ErrForbidden
	}
	removed, err := sess.Clear(force)
	if err != nil {
		return nil, err
	}
	s.registry.Release(groupID, removed...)
	s.logger.Info("Table cleared", "group_id", groupID, "by", actor, "removed", len(removed))
	return removed, nil
}

// Briefing returns the table text. Roles are shown to the judge only.
func (s *Service) Briefing(_ context.Context, groupID, actor string, showRoles bool) (string, error) {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return "", err
	}
	if showRoles && sess.Judge() != actor {
		return "", ErrForbidden
	}
	return sess.Briefing(showRoles), nil
}

// IsJudge reports whether userID is the group's judge.
func (s *Service) IsJudge(groupID, userID string) bool {
	sess, err := s.registry.Get(groupID)
	if err != nil {
		return false
	}
	return userID != "" && sess.Judge() == userID
}

func (s *Service) requireRunningJudge(sess *game.Session, actor string) error {
	if sess.State() != game.Running {
		return game.ErrGameNotStarted
	}
	if sess.Judge() != actor {
		return ErrForbidden
	}
	return nil
}

func snapshotMembers(snap game.Snapshot) []string {
	members := make([]string, 0, len(snap.Seats)+1)
	if snap.Judge != "" {
		members = append(members, snap.Judge)
	}
	for _, u := range snap.Seats {
		if u != "" {
			members = append(members, u)
		}
	}
	return members
}

// Presets lists stored presets.
func (s *Service) Presets(ctx context.Context) ([]*domain.Preset, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListPresets(ctx)
}

// SavePreset validates and stores a preset with its aliases. Moderators only.
func (s *Service) SavePreset(ctx context.Context, actor, name, board string, aliases []string) (*domain.Preset, error) {
	if s.repo == nil || !s.operator(ctx, actor).CanModerate() {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidPreset
	}
	b, err := s.registry.Catalog().ParseBoard(board)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &domain.Preset{Name: name, Board: b.Codes(), CreatedAt: now, UpdatedAt: now}
	if err := s.repo.UpsertPreset(ctx, p); err != nil {
		return nil, fmt.Errorf("save preset %q: %w", name, err)
	}
	if aliases != nil {
		if err := s.repo.SetAliases(ctx, name, aliases); err != nil {
			return nil, fmt.Errorf("set aliases for %q: %w", name, err)
		}
	}

	saved, err := s.repo.GetPreset(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Preset saved", "name", name, "board", b.Codes(), "by", actor)
	return saved, nil
}

// GrantOperator sets userID's operator level. Admins only, and an admin
// cannot change their own level.
func (s *Service) GrantOperator(ctx context.Context, actor, userID string, level int) (*domain.Operator, error) {
	if s.repo == nil || !s.operator(ctx, actor).CanGrant() {
		return nil, ErrForbidden
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, game.ErrInvalidUser
	}
	if userID == actor {
		return nil, ErrForbidden
	}
	if !domain.ValidLevel(level) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	if err := s.repo.SetOperator(ctx, &domain.Operator{UserID: userID, Level: level}); err != nil {
		return nil, fmt.Errorf("set operator %s: %w", userID, err)
	}
	s.logger.Info("Operator level changed", "user_id", userID, "level", level, "by", actor)
	return s.operator(ctx, userID), nil
}

// Roles lists the catalog's roles, for help output.
func (s *Service) Roles() []catalog.RoleSpec {
	return s.registry.Catalog().Roles()
}
