package service

import (
	"strings"

	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/config"
	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/repository"
	"github.com/storyloom/storyloom-backend/internal/scraper"
)

// ResolvedIdentity pairs the internal author records derived from one
// origin username + icon descriptor. Character and Icon are nil when the
// username maps to a bare user account or the fragment carried no icon.
type ResolvedIdentity struct {
	User      *domain.User
	Character *domain.Character
	Icon      *domain.Icon
}

type resolvedAuthor struct {
	user      *domain.User
	character *domain.Character
}

// IdentityResolver maps origin usernames and icon descriptors to
// internal users, characters and icons, creating records when allowed
// and nothing matches.
//
// One resolver is scoped to one import: the memoization maps are plain
// fields, so two concurrent imports can never interfere through shared
// state. Repeated calls for the same username or icon URL within an
// import return the same records instead of creating duplicates.
type IdentityResolver struct {
	users      *repository.UserRepository
	characters *repository.CharacterRepository
	icons      *repository.IconRepository
	cfg        config.ImporterConfig

	// importerID owns characters created on the fly
	importerID    int64
	createMissing bool

	authors    map[string]*resolvedAuthor
	iconsByURL map[string]*domain.Icon
}

// NewIdentityResolver creates a resolver scoped to one import
func NewIdentityResolver(
	users *repository.UserRepository,
	characters *repository.CharacterRepository,
	icons *repository.IconRepository,
	cfg config.ImporterConfig,
	importerID int64,
	createMissing bool,
) *IdentityResolver {
	return &IdentityResolver{
		users:         users,
		characters:    characters,
		icons:         icons,
		cfg:           cfg,
		importerID:    importerID,
		createMissing: createMissing,
		authors:       make(map[string]*resolvedAuthor),
		iconsByURL:    make(map[string]*domain.Icon),
	}
}

// Resolve maps one fragment's authorship metadata to internal records.
// All lookups and creations run on tx so they commit or roll back with
// the rest of the import.
func (r *IdentityResolver) Resolve(tx *gorm.DB, frag *scraper.EntryFragment) (*ResolvedIdentity, error) {
	author, err := r.resolveAuthor(tx, frag.Username)
	if err != nil {
		return nil, err
	}

	icon, err := r.resolveIcon(tx, author, frag)
	if err != nil {
		return nil, err
	}

	return &ResolvedIdentity{User: author.user, Character: author.character, Icon: icon}, nil
}

// CheckResolvable dry-runs username resolution without writing anything
// and returns every name that would fail. Used by the pre-flight
// validator and by flat-mode imports before the transaction opens, so
// partial imports caused by unknown usernames cannot occur.
func (r *IdentityResolver) CheckResolvable(db *gorm.DB, usernames []string) ([]string, error) {
	var unresolved []string
	seen := make(map[string]bool)

	for _, name := range usernames {
		if seen[name] {
			continue
		}
		seen[name] = true

		if _, ok := r.cfg.KnownAccounts[name]; ok {
			continue
		}
		ch, err := r.characters.WithTx(db).FindByScreennames(screennameCandidates(name))
		if err != nil {
			return nil, err
		}
		if ch == nil {
			unresolved = append(unresolved, name)
		}
	}

	return unresolved, nil
}

func (r *IdentityResolver) resolveAuthor(tx *gorm.DB, username string) (*resolvedAuthor, error) {
	if author, ok := r.authors[username]; ok {
		return author, nil
	}

	// (a) hand-curated house accounts resolve straight to a user
	if userID, ok := r.cfg.KnownAccounts[username]; ok {
		user, err := r.users.WithTx(tx).FindByID(userID)
		if err != nil {
			return nil, err
		}
		author := &resolvedAuthor{user: user}
		r.authors[username] = author
		return author, nil
	}

	// (b) character by screenname; the origin treats underscores and
	// hyphens as interchangeable in some contexts, so try both forms
	ch, err := r.characters.WithTx(tx).FindByScreennames(screennameCandidates(username))
	if err != nil {
		return nil, err
	}
	if ch != nil {
		user, err := r.users.WithTx(tx).FindByID(ch.UserID)
		if err != nil {
			return nil, err
		}
		author := &resolvedAuthor{user: user, character: ch}
		r.authors[username] = author
		return author, nil
	}

	// (c) no match: create under the importing user when permitted
	if !r.createMissing {
		return nil, &common.UnresolvableIdentityError{Usernames: []string{username}}
	}

	user, err := r.users.WithTx(tx).FindByID(r.importerID)
	if err != nil {
		return nil, err
	}
	ch = &domain.Character{UserID: user.ID, Name: username, Screenname: username}
	if err := r.characters.WithTx(tx).Create(ch); err != nil {
		return nil, err
	}
	gallery := &domain.Gallery{UserID: user.ID, CharacterID: &ch.ID, Name: username}
	if err := r.characters.WithTx(tx).CreateGallery(gallery); err != nil {
		return nil, err
	}

	author := &resolvedAuthor{user: user, character: ch}
	r.authors[username] = author
	return author, nil
}

func (r *IdentityResolver) resolveIcon(tx *gorm.DB, author *resolvedAuthor, frag *scraper.EntryFragment) (*domain.Icon, error) {
	url := scraper.NormalizeIconURL(frag.IconURL, r.cfg.IconHost)
	if url == "" {
		return nil, nil
	}

	if icon, ok := r.iconsByURL[url]; ok {
		return icon, nil
	}

	icons := r.icons.WithTx(tx)

	// (b) an icon already stored under this exact URL wins outright
	icon, err := icons.FindByURL(url)
	if err != nil {
		return nil, err
	}
	if icon != nil {
		r.iconsByURL[url] = icon
		return icon, nil
	}

	keyword := cleanKeyword(frag.IconKeyword)

	// (d) keyword match against the resolved owner
	for _, candidate := range keywordCandidates(keyword, frag.Username, r.cfg.LegacyKeywordPrefixes) {
		if author.character != nil {
			icon, err = icons.FindByCharacterAndKeyword(author.character.ID, candidate)
		} else {
			icon, err = icons.FindByUserAndKeyword(author.user.ID, candidate)
		}
		if err != nil {
			return nil, err
		}
		if icon != nil {
			r.iconsByURL[url] = icon
			return icon, nil
		}
	}

	// (e) nothing matches: create the icon under the character's first
	// gallery (creating it if absent) or the bare user
	icon = &domain.Icon{UserID: author.user.ID, URL: url, Keyword: keyword}
	if err := icons.Create(icon); err != nil {
		return nil, err
	}

	if author.character != nil {
		gallery, err := r.characters.WithTx(tx).FirstGallery(author.character.ID)
		if err != nil {
			return nil, err
		}
		if gallery == nil {
			gallery = &domain.Gallery{
				UserID:      author.user.ID,
				CharacterID: &author.character.ID,
				Name:        author.character.Name,
			}
			if err := r.characters.WithTx(tx).CreateGallery(gallery); err != nil {
				return nil, err
			}
		}
		if err := icons.AttachToGallery(gallery.ID, icon.ID); err != nil {
			return nil, err
		}
	}

	r.iconsByURL[url] = icon
	return icon, nil
}

// screennameCandidates returns the username plus its underscore/hyphen
// swapped forms, deduplicated, lookup order preserved.
func screennameCandidates(username string) []string {
	candidates := []string{username}
	if swapped := strings.ReplaceAll(username, "_", "-"); swapped != username {
		candidates = append(candidates, swapped)
	}
	if swapped := strings.ReplaceAll(username, "-", "_"); swapped != username {
		candidates = append(candidates, swapped)
	}
	return candidates
}

// cleanKeyword derives the stored keyword from the origin descriptor:
// the "(Default)" marker goes, as does any prefix before a colon.
func cleanKeyword(raw string) string {
	kw := strings.ReplaceAll(raw, " (Default)", "")
	if i := strings.LastIndex(kw, ":"); i >= 0 {
		kw = kw[i+1:]
	}
	return strings.TrimSpace(kw)
}

// keywordCandidates yields fallback keyword forms tried against existing
// icons: the keyword itself, the keyword with a trailing parenthetical
// description stripped, and the keyword with the account's legacy prefix
// convention stripped.
func keywordCandidates(keyword, username string, legacyPrefixes map[string]string) []string {
	if keyword == "" {
		return nil
	}
	candidates := []string{keyword}

	if stripped := stripTrailingParenthetical(keyword); stripped != keyword {
		candidates = append(candidates, stripped)
	}
	if prefix, ok := legacyPrefixes[username]; ok {
		if trimmed := strings.TrimSpace(strings.TrimPrefix(keyword, prefix)); trimmed != keyword && trimmed != "" {
			candidates = append(candidates, trimmed)
			if stripped := stripTrailingParenthetical(trimmed); stripped != trimmed {
				candidates = append(candidates, stripped)
			}
		}
	}

	return candidates
}

func stripTrailingParenthetical(keyword string) string {
	if !strings.HasSuffix(keyword, ")") {
		return keyword
	}
	i := strings.LastIndex(keyword, " (")
	if i <= 0 {
		return keyword
	}
	return strings.TrimSpace(keyword[:i])
}
