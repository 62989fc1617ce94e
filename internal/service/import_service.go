package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/config"
	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/repository"
	"github.com/storyloom/storyloom-backend/internal/scraper"
	"github.com/storyloom/storyloom-backend/pkg/logger"
)

var (
	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "importer_imports_total",
			Help: "Total number of finished imports by outcome",
		},
		[]string{"outcome"},
	)

	importPagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_pages_fetched_total",
			Help: "Total number of origin pages fetched",
		},
	)
)

// CacheRebuilder regenerates the denormalized flat rendering of a post.
// The rebuild itself is an external collaborator; the orchestrator only
// triggers it after a successful commit.
type CacheRebuilder interface {
	Rebuild(ctx context.Context, postID int64) error
}

// ImportService orchestrates one journal thread import: pre-flight
// validation, fetch, pagination walking, entry mapping and all-or-nothing
// persistence.
type ImportService struct {
	db         *gorm.DB
	fetcher    scraper.Fetcher
	boards     *repository.BoardRepository
	posts      *repository.PostRepository
	replies    *repository.ReplyRepository
	users      *repository.UserRepository
	characters *repository.CharacterRepository
	icons      *repository.IconRepository
	rebuilder  CacheRebuilder
	cfg        config.ImporterConfig
}

// NewImportService creates a new ImportService
func NewImportService(
	db *gorm.DB,
	fetcher scraper.Fetcher,
	boards *repository.BoardRepository,
	posts *repository.PostRepository,
	replies *repository.ReplyRepository,
	users *repository.UserRepository,
	characters *repository.CharacterRepository,
	icons *repository.IconRepository,
	rebuilder CacheRebuilder,
	cfg config.ImporterConfig,
) *ImportService {
	return &ImportService{
		db:         db,
		fetcher:    fetcher,
		boards:     boards,
		posts:      posts,
		replies:    replies,
		users:      users,
		characters: characters,
		icons:      icons,
		rebuilder:  rebuilder,
		cfg:        cfg,
	}
}

// Preflight is the synchronous validation surface shown to the user
// before a job is queued: URL shape, duplicate subject (flat mode) and a
// dry-run username-resolvability check across every discovered page.
// Threaded imports are only shape-checked here; their identity failures
// surface mid-import (see ImportThread).
func (s *ImportService) Preflight(ctx context.Context, req *domain.ImportRequest) (*domain.ImportPreview, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	if req.Threaded {
		return &domain.ImportPreview{Subject: req.Subject}, nil
	}

	docs, err := s.fetchFlatPages(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	subject, err := s.resolveSubject(req, docs[0])
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(req.BoardID, subject); err != nil {
		return nil, err
	}

	usernames, err := collectUsernames(docs)
	if err != nil {
		return nil, err
	}

	if !req.CreateMissing {
		resolver := s.newResolver(req)
		unresolved, err := resolver.CheckResolvable(s.db, usernames)
		if err != nil {
			return nil, err
		}
		if len(unresolved) > 0 {
			return nil, &common.UnresolvableIdentityError{Usernames: unresolved}
		}
	}

	return &domain.ImportPreview{
		Subject:   subject,
		PageCount: len(docs),
		Usernames: usernames,
	}, nil
}

// Import runs one full import to a terminal outcome: the post and every
// reply committed with finalized denormalized fields, AlreadyImported
// before any write, or a failure that rolls the whole transaction back.
func (s *ImportService) Import(ctx context.Context, req *domain.ImportRequest) (*domain.Post, error) {
	if err := s.validateRequest(req); err != nil {
		importsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	var post *domain.Post
	var err error
	if req.Threaded {
		post, err = s.ImportThread(ctx, req, nil, req.URL)
	} else {
		post, err = s.importFlat(ctx, req)
	}

	switch {
	case err == nil:
		importsTotal.WithLabelValues("imported").Inc()
	case isAlreadyImported(err):
		importsTotal.WithLabelValues("already_imported").Inc()
	default:
		importsTotal.WithLabelValues("failed").Inc()
	}
	if err != nil {
		return nil, err
	}

	// Cache regeneration happens outside the transaction: a rebuild
	// failure must not unwind a committed import.
	if s.rebuilder != nil {
		if err := s.rebuilder.Rebuild(ctx, post.ID); err != nil {
			logger.GetLogger().Error().Err(err).Int64("post_id", post.ID).
				Msg("flat cache rebuild failed after import")
		}
	}

	return post, nil
}

func (s *ImportService) importFlat(ctx context.Context, req *domain.ImportRequest) (*domain.Post, error) {
	docs, err := s.fetchFlatPages(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	subject, err := s.resolveSubject(req, docs[0])
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(req.BoardID, subject); err != nil {
		return nil, err
	}

	entry, err := docs[0].Entry()
	if err != nil {
		return nil, err
	}
	frags, err := flatComments(docs)
	if err != nil {
		return nil, err
	}

	resolver := s.newResolver(req)

	// Identity problems must surface before any persistence: a partial
	// import caused by an unknown username cannot occur by construction.
	if !req.CreateMissing {
		usernames := []string{entry.Username}
		for _, frag := range frags {
			usernames = append(usernames, frag.Username)
		}
		unresolved, err := resolver.CheckResolvable(s.db, usernames)
		if err != nil {
			return nil, err
		}
		if len(unresolved) > 0 {
			return nil, &common.UnresolvableIdentityError{Usernames: unresolved}
		}
	}

	var post *domain.Post
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		post, txErr = s.createPost(tx, req, resolver, subject, entry)
		if txErr != nil {
			return txErr
		}
		for ord, frag := range frags {
			if txErr := s.appendReply(tx, resolver, post, frag, ord); txErr != nil {
				return txErr
			}
		}
		return s.finalize(tx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ImportThread imports one threaded discussion. With post == nil a new
// post is created from the thread's opening entry; handing in an
// existing post appends instead, which is how a single index page
// referencing several independent sub-threads is imported one sub-thread
// at a time.
func (s *ImportService) ImportThread(ctx context.Context, req *domain.ImportRequest, post *domain.Post, threadURL string) (*domain.Post, error) {
	pageURL, err := scraper.NormalizeThreadURL(threadURL, true)
	if err != nil {
		return nil, err
	}

	main, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var subject string
	if post == nil {
		// Threaded imports are only subject-checked when an explicit
		// override names the subject up front; otherwise the scraped
		// subject is not known to be stable across sub-threads.
		if req.Subject != "" {
			if err := s.checkDuplicate(req.BoardID, req.Subject); err != nil {
				return nil, err
			}
		}
		subject, err = s.resolveSubject(req, main)
		if err != nil {
			return nil, err
		}
	}

	resolver := s.newResolver(req)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ord := 0
		if post == nil {
			entry, txErr := main.Entry()
			if txErr != nil {
				return txErr
			}
			post, txErr = s.createPost(tx, req, resolver, subject, entry)
			if txErr != nil {
				return txErr
			}
		} else {
			count, txErr := s.replies.WithTx(tx).CountByPost(post.ID)
			if txErr != nil {
				return txErr
			}
			ord = int(count)
		}

		// Explicit worklist: the index document enumerates every
		// continuation boundary up front, so sub-thread pages drain
		// through a plain queue rather than recursion. Thread depth is
		// bounded only by origin content.
		queue, txErr := scraper.Continuations(main)
		if txErr != nil {
			return txErr
		}

		doc := main
		for {
			window := scraper.CommentWindow(doc)
			for i := 0; i < window; i++ {
				frag, txErr := doc.Comment(i)
				if txErr != nil {
					return txErr
				}
				if txErr := s.appendReply(tx, resolver, post, frag, ord); txErr != nil {
					return txErr
				}
				ord++
			}

			if len(queue) == 0 {
				break
			}
			contURL, txErr := scraper.NormalizeThreadURL(queue[0], true)
			if txErr != nil {
				return txErr
			}
			queue = queue[1:]
			doc, txErr = s.fetch(ctx, contURL)
			if txErr != nil {
				return txErr
			}
		}

		return s.finalize(tx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ImportService) validateRequest(req *domain.ImportRequest) error {
	if err := scraper.ValidateOriginURL(req.URL, s.cfg.OriginHost); err != nil {
		return err
	}
	if req.Status != "" && !domain.ValidPostStatus(req.Status) {
		return fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, req.Status)
	}
	if _, err := s.boards.FindByID(req.BoardID); err != nil {
		return err
	}
	if req.SectionID != nil {
		if _, err := s.boards.FindSection(req.BoardID, *req.SectionID); err != nil {
			return err
		}
	}
	if _, err := s.users.FindByID(req.UserID); err != nil {
		return err
	}
	return nil
}

func (s *ImportService) newResolver(req *domain.ImportRequest) *IdentityResolver {
	return NewIdentityResolver(s.users, s.characters, s.icons, s.cfg, req.UserID, req.CreateMissing)
}

func (s *ImportService) fetch(ctx context.Context, url string) (*scraper.RemoteDocument, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	importPagesFetched.Inc()
	return doc, nil
}

// fetchFlatPages downloads the opening page plus every page the explicit
// page-links navigation names, in order. Each page is fetched exactly
// once per attempt.
func (s *ImportService) fetchFlatPages(ctx context.Context, rawURL string) ([]*scraper.RemoteDocument, error) {
	pageURL, err := scraper.NormalizeThreadURL(rawURL, false)
	if err != nil {
		return nil, err
	}

	first, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	docs := []*scraper.RemoteDocument{first}
	for _, link := range scraper.PageLinks(first) {
		linkURL, err := scraper.NormalizeThreadURL(link, false)
		if err != nil {
			return nil, err
		}
		doc, err := s.fetch(ctx, linkURL)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *ImportService) resolveSubject(req *domain.ImportRequest, doc *scraper.RemoteDocument) (string, error) {
	if req.Subject != "" {
		return req.Subject, nil
	}
	subject := doc.Subject()
	if subject == "" {
		return "", &common.MalformedFragmentError{URL: doc.URL, Field: "subject"}
	}
	return subject, nil
}

// checkDuplicate is a best-effort check-then-act: two identical imports
// submitted simultaneously can race past it. Accepted risk, not worth an
// advisory lock.
func (s *ImportService) checkDuplicate(boardID int64, subject string) error {
	existing, err := s.posts.FindBySubject(boardID, subject)
	if err != nil {
		return err
	}
	if existing != nil {
		return &common.AlreadyImportedError{PostID: existing.ID, Subject: subject}
	}
	return nil
}

func (s *ImportService) createPost(tx *gorm.DB, req *domain.ImportRequest, resolver *IdentityResolver, subject string, entry *scraper.EntryFragment) (*domain.Post, error) {
	identity, err := resolver.Resolve(tx, entry)
	if err != nil {
		return nil, err
	}

	// The request stays untouched; an unset status defaults here, on the
	// post being built.
	status := req.Status
	if status == "" {
		status = domain.PostStatusActive
	}

	post := &domain.Post{
		BoardID:   req.BoardID,
		SectionID: req.SectionID,
		UserID:    identity.User.ID,
		Subject:   subject,
		Content:   entry.Content,
		Status:    status,
		// The opening entry seeds the last-activity pointer to itself;
		// finalize moves it to the last reply once one exists.
		LastUserID: identity.User.ID,
		TaggedAt:   entry.PostedAt,
		CreatedAt:  entry.PostedAt,
		UpdatedAt:  entry.PostedAt,
	}
	if identity.Character != nil {
		post.CharacterID = &identity.Character.ID
	}
	if identity.Icon != nil {
		post.IconID = &identity.Icon.ID
	}

	if err := s.posts.WithTx(tx).Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ImportService) appendReply(tx *gorm.DB, resolver *IdentityResolver, post *domain.Post, frag *scraper.EntryFragment, ord int) error {
	identity, err := resolver.Resolve(tx, frag)
	if err != nil {
		return err
	}

	reply := &domain.Reply{
		PostID:  post.ID,
		UserID:  identity.User.ID,
		Content: frag.Content,
		// Origin document order is load-bearing; ordinals are assigned
		// strictly in walk order and never reshuffled.
		ReplyOrder: ord,
		// Displayed origin timestamps become both creation and update
		// time so the historical record stays accurate.
		CreatedAt: frag.PostedAt,
		UpdatedAt: frag.PostedAt,
	}
	if identity.Character != nil {
		reply.CharacterID = &identity.Character.ID
	}
	if identity.Icon != nil {
		reply.IconID = &identity.Icon.ID
	}

	return s.replies.WithTx(tx).Create(reply)
}

// finalize sets the post's denormalized last-reply fields, locks the
// author roster and writes the roster rows. Runs after every reply is
// persisted, still inside the import transaction.
func (s *ImportService) finalize(tx *gorm.DB, post *domain.Post) error {
	replies := s.replies.WithTx(tx)

	last, err := replies.LastByPost(post.ID)
	if err != nil {
		return err
	}
	if last != nil {
		post.LastReplyID = &last.ID
		post.LastUserID = last.UserID
		post.TaggedAt = last.CreatedAt
	}
	post.AuthorsLocked = true

	if err := s.posts.WithTx(tx).Save(post); err != nil {
		return err
	}

	all, err := replies.ListByPost(post.ID)
	if err != nil {
		return err
	}
	seen := map[int64]bool{post.UserID: true}
	authorIDs := []int64{post.UserID}
	for _, reply := range all {
		if !seen[reply.UserID] {
			seen[reply.UserID] = true
			authorIDs = append(authorIDs, reply.UserID)
		}
	}
	return s.posts.WithTx(tx).ReplaceAuthors(post.ID, authorIDs)
}

func flatComments(docs []*scraper.RemoteDocument) ([]*scraper.EntryFragment, error) {
	var frags []*scraper.EntryFragment
	for _, doc := range docs {
		for i := 0; i < doc.CommentCount(); i++ {
			frag, err := doc.Comment(i)
			if err != nil {
				return nil, err
			}
			frags = append(frags, frag)
		}
	}
	return frags, nil
}

func collectUsernames(docs []*scraper.RemoteDocument) ([]string, error) {
	entry, err := docs[0].Entry()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{entry.Username: true}
	usernames := []string{entry.Username}

	frags, err := flatComments(docs)
	if err != nil {
		return nil, err
	}
	for _, frag := range frags {
		if !seen[frag.Username] {
			seen[frag.Username] = true
			usernames = append(usernames, frag.Username)
		}
	}
	return usernames, nil
}

func isAlreadyImported(err error) bool {
	var already *common.AlreadyImportedError
	return errors.As(err, &already)
}
