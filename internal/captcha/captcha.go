// Package captcha issues and verifies the arithmetic login challenge:
// the sum of two small random integers, bound to an opaque challenge ID
// instead of a server-side session.  Challenges are stored in Redis
// with a short TTL so they work across replicas; when no Redis client
// is available the package degrades to an in-process store, the same
// posture the rate limiter and response cache take.
package captcha

import (
    "context"
    "fmt"
    "math/rand"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// TTL is how long an issued challenge stays answerable.
const TTL = 5 * time.Minute

// Challenge is what the login page shows the caller.  The answer stays
// server-side.
type Challenge struct {
    ID       string `json:"captcha_id"`
    Question string `json:"question"`
}

// Store issues single-use arithmetic challenges and verifies answers.
type Store interface {
    // Issue creates a new challenge and persists its answer for TTL.
    Issue(ctx context.Context) (Challenge, error)
    // Verify consumes the challenge and reports whether the answer
    // matches.  A challenge can be verified at most once; unknown or
    // expired IDs fail.
    Verify(ctx context.Context, id, answer string) (bool, error)
}

// New returns a Redis-backed store when a client is available and the
// in-process fallback otherwise.
func New(rdb *redis.Client) Store {
    if rdb != nil {
        return &redisStore{rdb: rdb}
    }
    return &memoryStore{answers: map[string]memoryEntry{}}
}

// newChallenge picks the two operands and returns the challenge plus
// its expected answer.
func newChallenge() (Challenge, string) {
    a := rand.Intn(10) + 1
    b := rand.Intn(10) + 1
    return Challenge{
        ID:       uuid.NewString(),
        Question: fmt.Sprintf("%d + %d", a, b),
    }, strconv.Itoa(a + b)
}

type redisStore struct {
    rdb *redis.Client
}

func (s *redisStore) Issue(ctx context.Context) (Challenge, error) {
    ch, answer := newChallenge()
    if err := s.rdb.Set(ctx, "captcha:"+ch.ID, answer, TTL).Err(); err != nil {
        return Challenge{}, err
    }
    return ch, nil
}

func (s *redisStore) Verify(ctx context.Context, id, answer string) (bool, error) {
    // GETDEL makes the challenge single-use atomically.
    want, err := s.rdb.GetDel(ctx, "captcha:"+id).Result()
    if err == redis.Nil {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return strings.TrimSpace(answer) == want, nil
}

type memoryEntry struct {
    answer    string
    expiresAt time.Time
}

// memoryStore is the single-process fallback.  Entries are pruned
// lazily on each Issue call.
type memoryStore struct {
    mu      sync.Mutex
    answers map[string]memoryEntry
}

func (s *memoryStore) Issue(ctx context.Context) (Challenge, error) {
    ch, answer := newChallenge()
    now := time.Now()
    s.mu.Lock()
    defer s.mu.Unlock()
    for id, e := range s.answers {
        if now.After(e.expiresAt) {
            delete(s.answers, id)
        }
    }
    s.answers[ch.ID] = memoryEntry{answer: answer, expiresAt: now.Add(TTL)}
    return ch, nil
}

func (s *memoryStore) Verify(ctx context.Context, id, answer string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.answers[id]
    if !ok {
        return false, nil
    }
    delete(s.answers, id) // single use
    if time.Now().After(e.expiresAt) {
        return false, nil
    }
    return strings.TrimSpace(answer) == e.answer, nil
}
