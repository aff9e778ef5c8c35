package notes

import (
	"errors"
	"fmt"
	"strings"

	"hardcoversync/internal/config"
	"hardcoversync/internal/logging"
	"hardcoversync/internal/metadata"
	"hardcoversync/internal/platform/hardcover"
	"hardcoversync/internal/vault"
)

// Kind is the reconciliation case of one book.
type Kind int

const (
	// KindNew: no note carries the book id and the target path is free.
	KindNew Kind = iota
	// KindSamePath: the book's note already sits at the target path.
	KindSamePath
	// KindDifferentPath: the book's note exists elsewhere and the target is free.
	KindDifferentPath
	// KindCollision: another note occupies the target path.
	KindCollision
)

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindSamePath:
		return "same_path"
	case KindDifferentPath:
		return "different_path"
	case KindCollision:
		return "collision"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Plan is the outcome of classifying a book against the vault.
type Plan struct {
	Kind   Kind
	Target string
	// Current is the path of the book's existing note, "" when there is none.
	Current string
	// Occupant is the book id of the note found at Target on a collision, 0
	// when that note has none.
	Occupant int
}

// Result reports what Reconcile did.
type Result struct {
	Kind    Kind
	Path    string
	Changed bool
}

// Reconciler creates and updates notes so that each book has exactly one.
type Reconciler struct {
	settings *config.Settings
	store    vault.Store
	paths    *PathBuilder
	index    *Index
}

func NewReconciler(settings *config.Settings, store vault.Store, index *Index) *Reconciler {
	return &Reconciler{
		settings: settings,
		store:    store,
		paths:    NewPathBuilder(settings),
		index:    index,
	}
}

// Classify decides how the book's note has to change without touching the
// vault beyond reads.
func (r *Reconciler) Classify(m *metadata.Metadata, raw []hardcover.Contributor) (Plan, error) {
	target := r.paths.Build(m, raw)
	current, found := r.index.Lookup(m.BookID)
	if found && current == target {
		return Plan{Kind: KindSamePath, Target: target, Current: current}, nil
	}

	occupied, err := r.store.Exists(target)
	if err != nil {
		return Plan{}, err
	}
	if !occupied {
		if found {
			return Plan{Kind: KindDifferentPath, Target: target, Current: current}, nil
		}
		return Plan{Kind: KindNew, Target: target}, nil
	}

	occ, err := vault.ReadDocument(r.store, target)
	if err != nil {
		return Plan{}, err
	}
	occID, _ := occ.Frontmatter.Int(config.BookIDProperty)
	if !found && (occID == 0 || occID == m.BookID) {
		// An unlinked note at the target is adopted.
		return Plan{Kind: KindSamePath, Target: target, Current: target}, nil
	}
	if !found {
		current = ""
	}
	return Plan{Kind: KindCollision, Target: target, Current: current, Occupant: occID}, nil
}

// Reconcile brings the book's note up to date.
func (r *Reconciler) Reconcile(m *metadata.Metadata, raw []hardcover.Contributor) (*Result, error) {
	plan, err := r.Classify(m, raw)
	if err != nil {
		return nil, fmt.Errorf("classify book %d: %w", m.BookID, err)
	}

	var res *Result
	switch plan.Kind {
	case KindNew:
		res, err = r.create(plan, m)
	case KindSamePath:
		res, err = r.update(plan, m)
	case KindDifferentPath:
		res, err = r.move(plan, m)
	case KindCollision:
		res, err = r.merge(plan, m)
	}
	if err != nil {
		return nil, fmt.Errorf("%s note for book %d: %w", plan.Kind, m.BookID, err)
	}
	return res, nil
}

func (r *Reconciler) create(plan Plan, m *metadata.Metadata) (*Result, error) {
	if err := r.ensureFolder(vault.Dir(plan.Target)); err != nil {
		return nil, err
	}
	content, err := r.render(nil, m)
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(plan.Target, content); err != nil {
		if errors.Is(err, vault.ErrExists) {
			// Lost a race for the path; fold into whatever got there first.
			plan.Kind = KindCollision
			return r.merge(plan, m)
		}
		return nil, err
	}
	r.index.Put(m.BookID, plan.Target)
	logging.Debug().Int("book_id", m.BookID).Str("path", plan.Target).Msg("created note")
	return &Result{Kind: KindNew, Path: plan.Target, Changed: true}, nil
}

func (r *Reconciler) update(plan Plan, m *metadata.Metadata) (*Result, error) {
	text, err := r.store.Read(plan.Target)
	if err != nil {
		return nil, err
	}
	doc, err := vault.ParseDocument(text)
	if err != nil {
		return nil, err
	}
	content, err := r.render(doc, m)
	if err != nil {
		return nil, err
	}
	r.index.Put(m.BookID, plan.Target)
	if content == text {
		return &Result{Kind: KindSamePath, Path: plan.Target}, nil
	}
	if err := r.store.Write(plan.Target, content); err != nil {
		return nil, err
	}
	logging.Debug().Int("book_id", m.BookID).Str("path", plan.Target).Msg("updated note")
	return &Result{Kind: KindSamePath, Path: plan.Target, Changed: true}, nil
}

// move rewrites the note where it is, then renames it.
func (r *Reconciler) move(plan Plan, m *metadata.Metadata) (*Result, error) {
	doc, err := vault.ReadDocument(r.store, plan.Current)
	if err != nil {
		return nil, err
	}
	content, err := r.render(doc, m)
	if err != nil {
		return nil, err
	}
	if err := r.store.Write(plan.Current, content); err != nil {
		return nil, err
	}
	if err := r.ensureFolder(vault.Dir(plan.Target)); err != nil {
		return nil, err
	}
	if err := r.store.Rename(plan.Current, plan.Target); err != nil {
		if errors.Is(err, vault.ErrExists) {
			plan.Kind = KindCollision
			return r.merge(plan, m)
		}
		return nil, err
	}
	r.index.Put(m.BookID, plan.Target)
	logging.Debug().Int("book_id", m.BookID).Str("from", plan.Current).Str("to", plan.Target).Msg("moved note")
	return &Result{Kind: KindDifferentPath, Path: plan.Target, Changed: true}, nil
}

// merge folds the book into the note occupying its target path. The
// occupant keeps its place, its custom keys and its user section, and takes
// the book id being synced. A note the book had elsewhere contributes its
// user section and custom keys, then is removed.
func (r *Reconciler) merge(plan Plan, m *metadata.Metadata) (*Result, error) {
	occ, err := vault.ReadDocument(r.store, plan.Target)
	if err != nil {
		return nil, err
	}
	if plan.Occupant == 0 {
		plan.Occupant, _ = occ.Frontmatter.Int(config.BookIDProperty)
	}

	var mover *vault.Document
	if plan.Current != "" && plan.Current != plan.Target {
		if mover, err = vault.ReadDocument(r.store, plan.Current); err != nil {
			return nil, err
		}
	}

	user, ok := userSection(occ.Body)
	if !ok {
		user = "\n\n"
	}
	fm := mergeFrontmatter(r.settings, occ.Frontmatter, m)
	if mover != nil {
		if mu, ok := userSection(mover.Body); ok {
			user = appendUserSection(user, mu)
		}
		adoptCustomKeys(r.settings, fm, mover.Frontmatter)
	}

	body := strings.TrimSuffix(renderBody(r.settings, m), "\n\n") + user
	content, err := (&vault.Document{Frontmatter: fm, Body: body}).String()
	if err != nil {
		return nil, err
	}
	if err := r.store.Write(plan.Target, content); err != nil {
		return nil, err
	}
	if mover != nil {
		if err := r.store.Remove(plan.Current); err != nil {
			return nil, err
		}
	}

	if plan.Occupant != 0 && plan.Occupant != m.BookID {
		r.index.Delete(plan.Occupant)
	}
	r.index.Put(m.BookID, plan.Target)
	logging.Info().
		Int("book_id", m.BookID).
		Int("occupant_book_id", plan.Occupant).
		Str("path", plan.Target).
		Str("removed", plan.Current).
		Msg("merged into occupant")
	return &Result{Kind: KindCollision, Path: plan.Target, Changed: true}, nil
}

// render produces the full note text, keeping what existing holds beyond
// the generated parts.
func (r *Reconciler) render(existing *vault.Document, m *metadata.Metadata) (string, error) {
	body := renderBody(r.settings, m)
	var fm *vault.Frontmatter
	if existing != nil {
		body = spliceBody(body, existing.Body)
		fm = existing.Frontmatter
	}
	doc := &vault.Document{Frontmatter: mergeFrontmatter(r.settings, fm, m), Body: body}
	return doc.String()
}

// ensureFolder creates dir unless it exists. Losing a creation race to
// another writer counts as success.
func (r *Reconciler) ensureFolder(dir string) error {
	if dir == "" {
		return nil
	}
	ok, err := r.store.Exists(dir)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := r.store.CreateFolder(dir); err != nil && !errors.Is(err, vault.ErrExists) {
		return err
	}
	return nil
}
