package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gfontenele/quickshop/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("cart not found")
	ErrLineNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Store holds one cart per session, entirely in memory. Mutations on the
// same session are mutually exclusive; different sessions never contend
// beyond the brief map lookup. The store is injected into handlers rather
// than living as package-level state so the locking contract is testable.
type Store struct {
	mu              sync.RWMutex
	sessions        map[string]*session
	defaultCurrency string
}

type session struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

func NewStore(defaultCurrency string) *Store {
	return &Store{
		sessions:        make(map[string]*session),
		defaultCurrency: defaultCurrency,
	}
}

func (s *Store) get(sessionID string) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	return sess
}

func (s *Store) getOrCreate(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// AddLine merges the line into the session's cart: an existing line for the
// same product has its quantity incremented, otherwise the line is appended
// preserving insertion order. The caller supplies an already-validated
// price; the store never looks one up itself.
func (s *Store) AddLine(sessionID string, line domain.CartLine) (domain.CartSnapshot, error) {
	if line.Quantity < 1 {
		return domain.CartSnapshot{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, line.Quantity)
	}

	sess := s.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.lines) > 0 && sess.lines[0].UnitPrice.Currency != line.UnitPrice.Currency {
		return domain.CartSnapshot{}, fmt.Errorf("add line %s: %w", line.ProductID, domain.ErrCurrencyMismatch)
	}

	for i := range sess.lines {
		if sess.lines[i].ProductID == line.ProductID {
			sess.lines[i].Quantity += line.Quantity
			return s.snapshotLocked(sessionID, sess), nil
		}
	}

	sess.lines = append(sess.lines, line)
	return s.snapshotLocked(sessionID, sess), nil
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
// The cart is left unchanged when the session or line does not exist.
func (s *Store) UpdateQuantity(sessionID, productID string, quantity int) (domain.CartSnapshot, error) {
	sess := s.get(sessionID)
	if sess == nil {
		return domain.CartSnapshot{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i := range sess.lines {
		if sess.lines[i].ProductID == productID {
			if quantity <= 0 {
				sess.lines = append(sess.lines[:i], sess.lines[i+1:]...)
			} else {
				sess.lines[i].Quantity = quantity
			}
			return s.snapshotLocked(sessionID, sess), nil
		}
	}

	return domain.CartSnapshot{}, ErrLineNotFound
}

// RemoveLine deletes the product's line. Removing a line that is not in the
// cart is a no-op; an unknown session is reported.
func (s *Store) RemoveLine(sessionID, productID string) (domain.CartSnapshot, error) {
	sess := s.get(sessionID)
	if sess == nil {
		return domain.CartSnapshot{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i := range sess.lines {
		if sess.lines[i].ProductID == productID {
			sess.lines = append(sess.lines[:i], sess.lines[i+1:]...)
			break
		}
	}

	return s.snapshotLocked(sessionID, sess), nil
}

// Clear empties the session's cart. Unknown sessions yield an empty
// snapshot rather than an error.
func (s *Store) Clear(sessionID string) domain.CartSnapshot {
	sess := s.get(sessionID)
	if sess == nil {
		return s.emptySnapshot(sessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lines = nil
	return s.snapshotLocked(sessionID, sess)
}

// Snapshot returns a deep copy of the session's cart with derived totals.
// Checkout freezes one of these so later mutations cannot affect an
// in-flight payment. An unknown session yields an empty snapshot.
func (s *Store) Snapshot(sessionID string) domain.CartSnapshot {
	sess := s.get(sessionID)
	if sess == nil {
		return s.emptySnapshot(sessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshotLocked(sessionID, sess)
}

func (s *Store) snapshotLocked(sessionID string, sess *session) domain.CartSnapshot {
	snap := s.emptySnapshot(sessionID)
	if len(sess.lines) == 0 {
		return snap
	}

	snap.Lines = make([]domain.CartLine, len(sess.lines))
	copy(snap.Lines, sess.lines)

	total := domain.NewMoney(0, snap.Lines[0].UnitPrice.Currency)
	count := 0
	for _, line := range snap.Lines {
		// AddLine rejects mixed currencies, so the sum cannot fail.
		total, _ = total.Add(line.Subtotal())
		count += line.Quantity
	}

	snap.Total = total
	snap.ItemCount = count
	return snap
}

func (s *Store) emptySnapshot(sessionID string) domain.CartSnapshot {
	return domain.CartSnapshot{
		SessionID:  sessionID,
		Lines:      []domain.CartLine{},
		Total:      domain.NewMoney(0, s.defaultCurrency),
		ItemCount:  0,
		CapturedAt: time.Now().UTC(),
	}
}
