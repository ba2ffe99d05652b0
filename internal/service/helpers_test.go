package service_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"estatemap/internal/entity"
	"estatemap/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Session{},
		&entity.CredentialToken{},
		&entity.Property{},
		&entity.PropertyImage{},
	))
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentEmail struct {
	Kind      string
	Recipient string
	Secret    string
}

// fakeEmailSender records every dispatch and can be told to fail a given
// message kind.
type fakeEmailSender struct {
	mu     sync.Mutex
	Sent   []sentEmail
	FailOn map[string]error
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{FailOn: map[string]error{}}
}

func (f *fakeEmailSender) record(kind, recipient, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailOn[kind]; err != nil {
		return err
	}
	f.Sent = append(f.Sent, sentEmail{Kind: kind, Recipient: recipient, Secret: secret})
	return nil
}

func (f *fakeEmailSender) SendVerificationEmail(_ context.Context, email, _, code string, _ time.Duration) error {
	return f.record("verification", email, code)
}

func (f *fakeEmailSender) SendPasswordResetEmail(_ context.Context, email, _, token string, _ time.Duration) error {
	return f.record("reset", email, token)
}

func (f *fakeEmailSender) SendWelcomeEmail(_ context.Context, email, _ string) error {
	return f.record("welcome", email, "")
}

func (f *fakeEmailSender) SendEmailChangeCode(_ context.Context, newEmail, _, _, code string, _ time.Duration) error {
	return f.record("email_change_code", newEmail, code)
}

func (f *fakeEmailSender) SendEmailChangedNotice(_ context.Context, oldEmail, _, _ string) error {
	return f.record("email_changed_notice", oldEmail, "")
}

func (f *fakeEmailSender) lastOfKind(kind string) *sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if f.Sent[i].Kind == kind {
			email := f.Sent[i]
			return &email
		}
	}
	return nil
}

func (f *fakeEmailSender) countOfKind(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, email := range f.Sent {
		if email.Kind == kind {
			count++
		}
	}
	return count
}

type fakeAccessIssuer struct{}

func (fakeAccessIssuer) IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error) {
	return fmt.Sprintf("access-%s-%s", user.ID, sessionID), time.Hour, nil
}

// fakeBlobStore keeps uploaded objects in memory.
type fakeBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
	PutErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PutErr != nil {
		return "", f.PutErr
	}
	f.Objects[key] = data
	f.Types[key] = contentType
	return "http://blobs.test/" + key, nil
}

func (f *fakeBlobStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Objects, key)
	delete(f.Types, key)
	return nil
}

func (f *fakeBlobStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Objects[key]
	return ok
}

var _ service.EmailSender = (*fakeEmailSender)(nil)
var _ service.BlobStore = (*fakeBlobStore)(nil)
var _ service.Clock = (*fakeClock)(nil)

// makePNG renders a solid-color PNG of the given dimensions.
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 120, G: 160, B: 200, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, img))
	return buffer.Bytes()
}
