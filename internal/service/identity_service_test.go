package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/config"
	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/migration"
	"github.com/storyloom/storyloom-backend/internal/repository"
	"github.com/storyloom/storyloom-backend/internal/scraper"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.Run(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, CreatedAt: time.Now()}
	require.NoError(t, repository.NewUserRepository(db).Create(u))
	return u
}

func seedCharacter(t *testing.T, db *gorm.DB, userID int64, name, screenname string) *domain.Character {
	t.Helper()
	ch := &domain.Character{UserID: userID, Name: name, Screenname: screenname}
	require.NoError(t, repository.NewCharacterRepository(db).Create(ch))
	return ch
}

func newTestResolver(db *gorm.DB, cfg config.ImporterConfig, importerID int64, createMissing bool) *IdentityResolver {
	return NewIdentityResolver(
		repository.NewUserRepository(db),
		repository.NewCharacterRepository(db),
		repository.NewIconRepository(db),
		cfg,
		importerID,
		createMissing,
	)
}

func testImporterConfig() config.ImporterConfig {
	return config.ImporterConfig{
		OriginHost: "dreamwidth.org",
		IconHost:   "www.dreamwidth.org",
	}
}

func TestResolveKnownAccount(t *testing.T) {
	db := newTestDB(t)
	mod := seedUser(t, db, "moderator")

	cfg := testImporterConfig()
	cfg.KnownAccounts = map[string]int64{"musebox_mods": mod.ID}

	resolver := newTestResolver(db, cfg, mod.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "musebox_mods"})
	require.NoError(t, err)

	assert.Equal(t, mod.ID, identity.User.ID)
	assert.Nil(t, identity.Character, "house accounts are users, not characters")
}

func TestResolveByScreenname(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	ch := seedCharacter(t, db, owner.ID, "The Winter Knight", "winter_knight")

	resolver := newTestResolver(db, testImporterConfig(), owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "winter_knight"})
	require.NoError(t, err)

	require.NotNil(t, identity.Character)
	assert.Equal(t, ch.ID, identity.Character.ID)
	assert.Equal(t, owner.ID, identity.User.ID)
}

func TestResolveUnderscoreHyphenSwap(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	ch := seedCharacter(t, db, owner.ID, "Rust", "rust-and-ruin")

	// The origin renders the handle with underscores; the stored
	// screenname uses hyphens.
	resolver := newTestResolver(db, testImporterConfig(), owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "rust_and_ruin"})
	require.NoError(t, err)

	require.NotNil(t, identity.Character)
	assert.Equal(t, ch.ID, identity.Character.ID)
}

func TestResolveUnknownUsernameFails(t *testing.T) {
	db := newTestDB(t)
	importer := seedUser(t, db, "alice")

	resolver := newTestResolver(db, testImporterConfig(), importer.ID, false)
	_, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "nobody_here"})

	var unresolvable *common.UnresolvableIdentityError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, []string{"nobody_here"}, unresolvable.Usernames)
}

func TestResolveCreatesMissingCharacter(t *testing.T) {
	db := newTestDB(t)
	importer := seedUser(t, db, "alice")

	resolver := newTestResolver(db, testImporterConfig(), importer.ID, true)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "new_face"})
	require.NoError(t, err)

	require.NotNil(t, identity.Character)
	assert.Equal(t, importer.ID, identity.Character.UserID)
	assert.Equal(t, "new_face", identity.Character.Screenname)

	// The new character gets a gallery for its icons
	gallery, err := repository.NewCharacterRepository(db).FirstGallery(identity.Character.ID)
	require.NoError(t, err)
	require.NotNil(t, gallery)
	assert.Equal(t, importer.ID, gallery.UserID)
}

func TestResolveMemoizesWithinImport(t *testing.T) {
	db := newTestDB(t)
	importer := seedUser(t, db, "alice")

	resolver := newTestResolver(db, testImporterConfig(), importer.ID, true)

	first, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "new_face"})
	require.NoError(t, err)
	second, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "new_face"})
	require.NoError(t, err)

	assert.Equal(t, first.Character.ID, second.Character.ID)

	var count int64
	require.NoError(t, db.Model(&domain.Character{}).Where("screenname = ?", "new_face").Count(&count).Error)
	assert.Equal(t, int64(1), count, "repeated resolution must not duplicate the character")
}

func TestResolveIconByURL(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	seedCharacter(t, db, owner.ID, "Knight", "winter_knight")

	icons := repository.NewIconRepository(db)
	existing := &domain.Icon{UserID: owner.ID, URL: "https://v.dreamwidth.org/111/222", Keyword: "amused"}
	require.NoError(t, icons.Create(existing))

	resolver := newTestResolver(db, testImporterConfig(), owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{
		Username: "winter_knight",
		// Protocol-relative on the page; matches the stored https form.
		IconURL:     "//v.dreamwidth.org/111/222",
		IconKeyword: "something else entirely",
	})
	require.NoError(t, err)

	require.NotNil(t, identity.Icon)
	assert.Equal(t, existing.ID, identity.Icon.ID)
}

func TestResolveIconByKeyword(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	ch := seedCharacter(t, db, owner.ID, "Knight", "winter_knight")

	chars := repository.NewCharacterRepository(db)
	gallery := &domain.Gallery{UserID: owner.ID, CharacterID: &ch.ID, Name: "Knight"}
	require.NoError(t, chars.CreateGallery(gallery))

	icons := repository.NewIconRepository(db)
	existing := &domain.Icon{UserID: owner.ID, URL: "https://v.dreamwidth.org/111/999", Keyword: "amused"}
	require.NoError(t, icons.Create(existing))
	require.NoError(t, icons.AttachToGallery(gallery.ID, existing.ID))

	resolver := newTestResolver(db, testImporterConfig(), owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{
		Username: "winter_knight",
		// Re-uploaded under a new URL, same keyword with the origin's
		// default marker appended.
		IconURL:     "//v.dreamwidth.org/111/222",
		IconKeyword: "amused (Default)",
	})
	require.NoError(t, err)

	require.NotNil(t, identity.Icon)
	assert.Equal(t, existing.ID, identity.Icon.ID)
}

func TestResolveIconLegacyPrefix(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	ch := seedCharacter(t, db, owner.ID, "Knight", "winter_knight")

	chars := repository.NewCharacterRepository(db)
	gallery := &domain.Gallery{UserID: owner.ID, CharacterID: &ch.ID, Name: "Knight"}
	require.NoError(t, chars.CreateGallery(gallery))

	icons := repository.NewIconRepository(db)
	existing := &domain.Icon{UserID: owner.ID, URL: "https://v.dreamwidth.org/111/999", Keyword: "smug"}
	require.NoError(t, icons.Create(existing))
	require.NoError(t, icons.AttachToGallery(gallery.ID, existing.ID))

	cfg := testImporterConfig()
	cfg.LegacyKeywordPrefixes = map[string]string{"winter_knight": "wk -"}

	resolver := newTestResolver(db, cfg, owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{
		Username:    "winter_knight",
		IconURL:     "//v.dreamwidth.org/111/222",
		IconKeyword: "wk - smug",
	})
	require.NoError(t, err)

	require.NotNil(t, identity.Icon)
	assert.Equal(t, existing.ID, identity.Icon.ID)
}

func TestResolveIconCreatedAndAttached(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	ch := seedCharacter(t, db, owner.ID, "Knight", "winter_knight")

	resolver := newTestResolver(db, testImporterConfig(), owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{
		Username:    "winter_knight",
		IconURL:     "//v.dreamwidth.org/111/222",
		IconKeyword: "brooding (in the rain)",
	})
	require.NoError(t, err)

	require.NotNil(t, identity.Icon)
	assert.Equal(t, "https://v.dreamwidth.org/111/222", identity.Icon.URL)
	assert.Equal(t, "brooding (in the rain)", identity.Icon.Keyword)

	// Attached to the character's (freshly created) first gallery
	icons := repository.NewIconRepository(db)
	found, err := icons.FindByCharacterAndKeyword(ch.ID, "brooding (in the rain)")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, identity.Icon.ID, found.ID)
}

func TestResolveWithoutIcon(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	seedCharacter(t, db, owner.ID, "Knight", "winter_knight")

	resolver := newTestResolver(db, testImporterConfig(), owner.ID, false)
	identity, err := resolver.Resolve(db, &scraper.EntryFragment{Username: "winter_knight"})
	require.NoError(t, err)

	assert.Nil(t, identity.Icon)
}

func TestCheckResolvable(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice")
	seedCharacter(t, db, owner.ID, "Knight", "winter_knight")

	cfg := testImporterConfig()
	cfg.KnownAccounts = map[string]int64{"musebox_mods": owner.ID}

	resolver := newTestResolver(db, cfg, owner.ID, false)
	unresolved, err := resolver.CheckResolvable(db, []string{
		"winter_knight", "musebox_mods", "ghost_one", "ghost_two", "ghost_one",
	})
	require.NoError(t, err)

	// Only the unknowns, each once, order preserved
	assert.Equal(t, []string{"ghost_one", "ghost_two"}, unresolved)
}

func TestCleanKeyword(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"amused (Default)", "amused"},
		{"winter: brooding", "brooding"},
		{"a: b: smug", "smug"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanKeyword(tt.raw), tt.raw)
	}
}

func TestScreennameCandidates(t *testing.T) {
	assert.Equal(t, []string{"no_swap_needed", "no-swap-needed"}, screennameCandidates("no_swap_needed"))
	assert.Equal(t, []string{"plain"}, screennameCandidates("plain"))
	assert.Equal(t,
		[]string{"mixed_and-matched", "mixed-and-matched", "mixed_and_matched"},
		screennameCandidates("mixed_and-matched"))
}
