package posts

import (
	"context"
	"errors"
	"testing"
	"time"

	"giftwall/internal/admission"
	"giftwall/internal/moderation"
	"giftwall/internal/rules"
	"giftwall/internal/settings"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testEventID = "11111111-1111-1111-1111-111111111111"

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) DeleteFile(key string) error {
	f.removed = append(f.removed, key)
	return f.err
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	remover *fakeRemover
	cfg     *settings.Service
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Post{}, &models.MediaItem{}, &models.EventSettings{}, &models.ContentRule{},
	))

	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	log := logger.New()
	cfgSvc := settings.NewService(db)
	_, err = cfgSvc.GetOrCreate(testEventID, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	gate := moderation.NewGate(nil, log)
	controller := admission.NewController(db, gate, loc)
	remover := &fakeRemover{}

	svc := NewService(
		NewRepository(db),
		rules.NewRepository(db),
		rules.NewMatcher(log),
		controller,
		cfgSvc,
		remover,
		nil,
		log,
	)

	return &fixture{db: db, svc: svc, remover: remover, cfg: cfgSvc}
}

func (f *fixture) submitBlessing(t *testing.T, device, text string) *models.Post {
	post, err := f.svc.Submit(context.Background(), SubmitInput{
		EventID:  testEventID,
		Kind:     models.KindBlessing,
		Text:     text,
		DeviceID: device,
	}, time.Now())
	require.NoError(t, err)
	return post
}

func TestSubmit_Approved(t *testing.T) {
	f := setup(t)

	post := f.submitBlessing(t, "dev-1", "mazel tov!")

	assert.Equal(t, models.StatusApproved, post.Status)
	assert.Empty(t, post.PendingReason)
	assert.Equal(t, "dev-1", post.DeviceID)
}

func TestSubmit_RequireApprovalPends(t *testing.T) {
	f := setup(t)
	on := true
	_, err := f.cfg.Update(testEventID, settings.Update{RequireApproval: &on}, time.Now())
	require.NoError(t, err)

	post := f.submitBlessing(t, "dev-1", "hello")

	assert.Equal(t, models.StatusPending, post.Status)
	assert.Equal(t, models.ReasonRequireApproval, post.PendingReason)
}

func TestSubmit_BlockRuleRejects(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Create(&models.ContentRule{
		RuleType: models.RuleTypeBlock, Scope: models.RuleScopeGlobal,
		MatchType: models.MatchTypeWord, Expression: "spam", IsActive: true,
	}).Error)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		EventID: testEventID, Kind: models.KindBlessing,
		Text: "this is not spam at all", DeviceID: "dev-1",
	}, time.Now())

	assert.ErrorIs(t, err, ErrContentBlocked)
}

func TestSubmit_InactiveRuleIgnored(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Create(&models.ContentRule{
		RuleType: models.RuleTypeBlock, Scope: models.RuleScopeGlobal,
		MatchType: models.MatchTypeWord, Expression: "spam", IsActive: false,
	}).Error)

	post := f.submitBlessing(t, "dev-1", "spam but the rule is off")
	assert.Equal(t, models.StatusApproved, post.Status)
}

func TestSubmit_RegistersMediaItem(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		EventID:     testEventID,
		Kind:        models.KindGallery,
		MediaURL:    "https://cdn.example.com/photos/a.jpg",
		StoragePath: "photos/a.jpg",
		DeviceID:    "dev-1",
	}, time.Now())
	require.NoError(t, err)

	var item models.MediaItem
	require.NoError(t, f.db.Where("storage_path = ?", "photos/a.jpg").First(&item).Error)
	assert.Nil(t, item.ArchivedAt)
	assert.Nil(t, item.DeletedAt)
}

func TestSubmit_Validation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		in   SubmitInput
	}{
		{"missing event", SubmitInput{Kind: models.KindBlessing, Text: "hi"}},
		{"bad kind", SubmitInput{EventID: testEventID, Kind: "story", Text: "hi"}},
		{"blessing without text", SubmitInput{EventID: testEventID, Kind: models.KindBlessing}},
		{"gallery without media", SubmitInput{EventID: testEventID, Kind: models.KindGallery}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.in, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestEdit_WithinWindow(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "first draft")

	text := "second draft"
	edited, err := f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "second draft", edited.Text)
	assert.Equal(t, models.StatusApproved, edited.Status)
}

func TestEdit_WrongDevice(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "hello")

	text := "hijacked"
	_, err := f.svc.Edit(context.Background(), post.ID, "dev-2", EditInput{Text: &text}, time.Now())
	assert.ErrorIs(t, err, ErrWrongDevice)
}

func TestEdit_WindowExpired(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "hello")

	text := "too late"
	_, err := f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text},
		post.CreatedAt.Add(EditWindow+time.Minute))
	assert.ErrorIs(t, err, ErrWindowExpired)
}

func TestEdit_WindowAnchoredToCreation(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "hello")

	// An edit near the end of the window succeeds but does not extend it
	text := "still in time"
	_, err := f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text},
		post.CreatedAt.Add(EditWindow-time.Minute))
	require.NoError(t, err)

	text = "window should be over"
	_, err = f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text},
		post.CreatedAt.Add(EditWindow+time.Minute))
	assert.ErrorIs(t, err, ErrWindowExpired)
}

func TestEdit_CanForcePending(t *testing.T) {
	f := setup(t)
	lines := 2
	_, err := f.cfg.Update(testEventID, settings.Update{MaxBlessingLines: &lines}, time.Now())
	require.NoError(t, err)

	post := f.submitBlessing(t, "dev-1", "short")

	text := "one\ntwo\nthree"
	edited, err := f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, edited.Status)
	assert.Equal(t, models.ReasonLines, edited.PendingReason)
}

func TestEdit_BlockRuleRejects(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "clean text")

	require.NoError(t, f.db.Create(&models.ContentRule{
		RuleType: models.RuleTypeBlock, Scope: models.RuleScopeGlobal,
		MatchType: models.MatchTypeContains, Expression: "casino", IsActive: true,
	}).Error)

	text := "visit my casino"
	_, err := f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text}, time.Now())
	assert.ErrorIs(t, err, ErrContentBlocked)
}

func TestDelete_SoftDeleteWithCleanup(t *testing.T) {
	f := setup(t)

	post, err := f.svc.Submit(context.Background(), SubmitInput{
		EventID:     testEventID,
		Kind:        models.KindGallery,
		MediaURL:    "https://cdn.example.com/photos/b.jpg",
		StoragePath: "photos/b.jpg",
		DeviceID:    "dev-1",
	}, time.Now())
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, f.svc.Delete(context.Background(), post.ID, "dev-1", now))

	reloaded, err := f.svc.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, reloaded.Status)
	assert.Equal(t, []string{"photos/b.jpg"}, f.remover.removed)

	var item models.MediaItem
	require.NoError(t, f.db.Where("storage_path = ?", "photos/b.jpg").First(&item).Error)
	assert.NotNil(t, item.DeletedAt)
}

func TestDelete_StorageFailureIsSwallowed(t *testing.T) {
	f := setup(t)
	f.remover.err = errors.New("storage down")

	post, err := f.svc.Submit(context.Background(), SubmitInput{
		EventID:     testEventID,
		Kind:        models.KindGallery,
		MediaURL:    "https://cdn.example.com/photos/c.jpg",
		StoragePath: "photos/c.jpg",
		DeviceID:    "dev-1",
	}, time.Now())
	require.NoError(t, err)

	// The post-level deletion must still succeed
	assert.NoError(t, f.svc.Delete(context.Background(), post.ID, "dev-1", time.Now()))

	reloaded, err := f.svc.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, reloaded.Status)
}

func TestDelete_IsTerminal(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "hello")

	require.NoError(t, f.svc.Delete(context.Background(), post.ID, "dev-1", time.Now()))

	// No further mutation once deleted
	assert.ErrorIs(t, f.svc.Delete(context.Background(), post.ID, "dev-1", time.Now()), ErrPostDeleted)

	text := "resurrect"
	_, err := f.svc.Edit(context.Background(), post.ID, "dev-1", EditInput{Text: &text}, time.Now())
	assert.ErrorIs(t, err, ErrPostDeleted)

	_, err = f.svc.AdminApprove(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPostDeleted)
}

func TestAdminApprove(t *testing.T) {
	f := setup(t)
	on := true
	_, err := f.cfg.Update(testEventID, settings.Update{RequireApproval: &on}, time.Now())
	require.NoError(t, err)

	post := f.submitBlessing(t, "dev-1", "waiting")
	require.Equal(t, models.StatusPending, post.Status)

	approved, err := f.svc.AdminApprove(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Empty(t, approved.PendingReason)
}

func TestAdminDelete_IgnoresDeviceAndWindow(t *testing.T) {
	f := setup(t)
	post := f.submitBlessing(t, "dev-1", "hello")

	// Backdate creation well past the self-service window
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	require.NoError(t, f.svc.AdminDelete(context.Background(), post.ID, time.Now()))

	reloaded, err := f.svc.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, reloaded.Status)
}

func TestListApproved_ExcludesPendingAndDeleted(t *testing.T) {
	f := setup(t)
	approved := f.submitBlessing(t, "dev-1", "live one")
	deleted := f.submitBlessing(t, "dev-2", "goner")
	require.NoError(t, f.svc.Delete(context.Background(), deleted.ID, "dev-2", time.Now()))

	on := true
	_, err := f.cfg.Update(testEventID, settings.Update{RequireApproval: &on}, time.Now())
	require.NoError(t, err)
	f.submitBlessing(t, "dev-3", "queued")

	list, err := f.svc.ListApproved(testEventID, models.KindBlessing, 50, 0)
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)
}

func TestGetByID_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.GetByID("99999999-9999-9999-9999-999999999999")
	assert.ErrorIs(t, err, ErrNotFound)
}
