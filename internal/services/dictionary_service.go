package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

var (
	errDictCatalogRequired = errors.New("dictionary: catalog client is required")
	errDictStoresRequired  = errors.New("dictionary: every dictionary repository is required")
)

// DictionaryEntry is the uniform view of one attribute dictionary row.
type DictionaryEntry struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// dictionaryStore narrows the four typed dictionary repositories to the
// operations the service applies uniformly across kinds.
type dictionaryStore interface {
	list(ctx context.Context) ([]DictionaryEntry, error)
	get(ctx context.Context, id int64) (DictionaryEntry, error)
	getByName(ctx context.Context, name string) (DictionaryEntry, error)
	insert(ctx context.Context, name, image string) (int64, error)
	rename(ctx context.Context, id int64, name string) error
	updateImage(ctx context.Context, id int64, imageURL string) error
	delete(ctx context.Context, id int64) error
	countReferences(ctx context.Context, id int64) (int64, error)
}

// DictionaryServiceDeps wires the dictionary sync dependencies.
type DictionaryServiceDeps struct {
	Metals  repositories.MetalRepository
	Stones  repositories.StoneRepository
	Styles  repositories.StyleRepository
	Groups  repositories.GroupRepository
	Catalog CatalogAPI
	Logger  *zap.Logger
}

// DictionaryService keeps each attribute dictionary consistent across
// three places: the relational rows, the two remote choice lists
// (product metafield definition and filter metaobject definition), and
// the per-value filter metaobject. Mutations on one kind are serialized
// so concurrent edits cannot interleave their remote rewrites.
type DictionaryService struct {
	stores  map[domain.DictionaryKind]dictionaryStore
	styles  repositories.StyleRepository
	catalog CatalogAPI
	logger  *zap.Logger
	locks   map[domain.DictionaryKind]*sync.Mutex
}

// NewDictionaryService constructs a DictionaryService.
func NewDictionaryService(deps DictionaryServiceDeps) (*DictionaryService, error) {
	if deps.Catalog == nil {
		return nil, errDictCatalogRequired
	}
	if deps.Metals == nil || deps.Stones == nil || deps.Styles == nil || deps.Groups == nil {
		return nil, errDictStoresRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	locks := make(map[domain.DictionaryKind]*sync.Mutex, len(domain.DictionaryKinds))
	for _, kind := range domain.DictionaryKinds {
		locks[kind] = &sync.Mutex{}
	}

	return &DictionaryService{
		stores: map[domain.DictionaryKind]dictionaryStore{
			domain.KindMetal: metalStore{repo: deps.Metals},
			domain.KindStone: stoneStore{repo: deps.Stones},
			domain.KindStyle: styleStore{repo: deps.Styles},
			domain.KindGroup: groupStore{repo: deps.Groups},
		},
		styles:  deps.Styles,
		catalog: deps.Catalog,
		logger:  logger.Named("dictionary"),
		locks:   locks,
	}, nil
}

func (s *DictionaryService) store(kind domain.DictionaryKind) (dictionaryStore, domain.KindSpec, error) {
	if !kind.Valid() {
		return nil, domain.KindSpec{}, fmt.Errorf("%w: unknown dictionary kind %q", ErrInvalidInput, kind)
	}
	return s.stores[kind], domain.KindSpecs[kind], nil
}

// List returns every entry of the kind.
func (s *DictionaryService) List(ctx context.Context, kind domain.DictionaryKind) ([]DictionaryEntry, error) {
	store, _, err := s.store(kind)
	if err != nil {
		return nil, err
	}
	entries, err := store.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("dictionary: list %s: %w", kind, err)
	}
	return entries, nil
}

// Create adds a new dictionary value everywhere: both remote choice
// lists, the filter metaobject, then the local row. A failed step
// unwinds the remote writes already applied.
func (s *DictionaryService) Create(ctx context.Context, kind domain.DictionaryKind, name, imageURL string) (int64, error) {
	store, spec, err := s.store(kind)
	if err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	s.locks[kind].Lock()
	defer s.locks[kind].Unlock()

	if _, err := store.getByName(ctx, name); err == nil {
		return 0, fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, name)
	} else if !isNotFound(err) {
		return 0, fmt.Errorf("dictionary: lookup %s: %w", kind, err)
	}

	var (
		metafieldChoices  []string
		metaobjectDefID   string
		metaobjectChoices []string
		createdObjectID   string
	)

	workflow := newSaga(s.logger)
	workflow.addStep("extend metafield choices",
		func(ctx context.Context) error {
			_, choices, err := s.catalog.MetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey)
			if err != nil {
				return err
			}
			metafieldChoices = choices
			if containsChoice(choices, name) {
				return nil
			}
			return s.catalog.UpdateMetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey, append(choices, name))
		},
		func(ctx context.Context) error {
			return s.catalog.UpdateMetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey, metafieldChoices)
		})
	workflow.addStep("extend metaobject choices",
		func(ctx context.Context) error {
			definitionID, choices, err := s.catalog.MetaobjectDefinitionChoices(ctx, spec.MetaobjectType, spec.ChoiceField)
			if err != nil {
				return err
			}
			metaobjectDefID = definitionID
			metaobjectChoices = choices
			if containsChoice(choices, name) {
				return nil
			}
			return s.catalog.UpdateMetaobjectDefinitionChoices(ctx, definitionID, spec.ChoiceField, append(choices, name))
		},
		func(ctx context.Context) error {
			return s.catalog.UpdateMetaobjectDefinitionChoices(ctx, metaobjectDefID, spec.ChoiceField, metaobjectChoices)
		})
	workflow.addStep("create filter metaobject",
		func(ctx context.Context) error {
			_, err := s.catalog.FindMetaobject(ctx, spec.MetaobjectType, map[string]string{
				"name": name,
				"type": spec.ChoiceField,
			})
			if err == nil {
				return nil
			}
			if !errors.Is(err, catalog.ErrNotFound) {
				return err
			}
			fields := map[string]string{
				"name": name,
				"type": spec.ChoiceField,
			}
			if spec.HasImage && imageURL != "" {
				fields["image"] = imageURL
			}
			createdObjectID, err = s.catalog.CreateMetaobject(ctx, spec.MetaobjectType, fields)
			return err
		},
		func(ctx context.Context) error {
			if createdObjectID == "" {
				return nil
			}
			return s.catalog.DeleteMetaobject(ctx, createdObjectID)
		})

	if err := workflow.run(ctx); err != nil {
		return 0, fmt.Errorf("%w: create %s %q: %v", ErrRemoteFailed, kind, name, err)
	}

	id, err := store.insert(ctx, name, imageURL)
	if err != nil {
		workflow.unwindAll(ctx)
		if isConflict(err) {
			return 0, fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, name)
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("dictionary value created",
		zap.String("kind", string(kind)), zap.String("name", name))
	return id, nil
}

// Rename changes a dictionary value everywhere it appears: both choice
// lists, the metafield value on every product carrying the old name,
// the filter metaobject, then the local row. Any failure reverts the
// steps already applied.
func (s *DictionaryService) Rename(ctx context.Context, kind domain.DictionaryKind, id int64, newName string) error {
	store, spec, err := s.store(kind)
	if err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	s.locks[kind].Lock()
	defer s.locks[kind].Unlock()

	entry, err := store.get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
		}
		return fmt.Errorf("dictionary: load %s: %w", kind, err)
	}
	oldName := entry.Name
	if oldName == newName {
		return nil
	}
	if _, err := store.getByName(ctx, newName); err == nil {
		return fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, newName)
	} else if !isNotFound(err) {
		return fmt.Errorf("dictionary: lookup %s: %w", kind, err)
	}

	// The filter metaobject must exist under the old name; its absence
	// means local and remote state have already drifted apart.
	metaobject, err := s.catalog.FindMetaobject(ctx, spec.MetaobjectType, map[string]string{
		"name": oldName,
		"type": spec.ChoiceField,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("%w: filter metaobject for %s %q missing upstream", ErrConflict, kind, oldName)
		}
		return fmt.Errorf("%w: find metaobject: %v", ErrRemoteFailed, err)
	}

	var (
		metafieldChoices  []string
		metaobjectDefID   string
		metaobjectChoices []string
		renamedProducts   []string
	)

	workflow := newSaga(s.logger)
	workflow.addStep("rewrite metafield choices",
		func(ctx context.Context) error {
			_, choices, err := s.catalog.MetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey)
			if err != nil {
				return err
			}
			metafieldChoices = choices
			return s.catalog.UpdateMetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey,
				replaceChoice(choices, oldName, newName))
		},
		func(ctx context.Context) error {
			return s.catalog.UpdateMetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey, metafieldChoices)
		})
	workflow.addStep("rewrite metaobject choices",
		func(ctx context.Context) error {
			definitionID, choices, err := s.catalog.MetaobjectDefinitionChoices(ctx, spec.MetaobjectType, spec.ChoiceField)
			if err != nil {
				return err
			}
			metaobjectDefID = definitionID
			metaobjectChoices = choices
			return s.catalog.UpdateMetaobjectDefinitionChoices(ctx, definitionID, spec.ChoiceField,
				replaceChoice(choices, oldName, newName))
		},
		func(ctx context.Context) error {
			return s.catalog.UpdateMetaobjectDefinitionChoices(ctx, metaobjectDefID, spec.ChoiceField, metaobjectChoices)
		})
	setChoiceValue := func(ctx context.Context, productID, value string) error {
		return s.catalog.SetMetafields(ctx, []catalog.MetafieldSetInput{{
			OwnerID:   productID,
			Namespace: spec.MetafieldNamespace,
			Key:       spec.MetafieldKey,
			Type:      "single_line_text_field",
			Value:     value,
		}})
	}
	revertRenamed := func(ctx context.Context) error {
		var failed error
		for _, productID := range renamedProducts {
			if err := setChoiceValue(ctx, productID, oldName); err != nil && failed == nil {
				failed = err
			}
		}
		return failed
	}
	workflow.addStep("rewrite product metafields",
		func(ctx context.Context) error {
			products, err := s.catalog.ListProductsWithMetafield(ctx, spec.MetafieldNamespace, spec.MetafieldKey)
			if err != nil {
				return err
			}
			for _, product := range products {
				if product.Value != oldName {
					continue
				}
				if err := setChoiceValue(ctx, product.ProductID, newName); err != nil {
					// The runner only compensates completed steps, so a
					// mid-loop failure must revert the products this
					// step already rewrote before surfacing.
					if revertErr := revertRenamed(ctx); revertErr != nil {
						s.logger.Error("product metafield revert failed",
							zap.String("kind", string(kind)),
							zap.Error(revertErr))
					}
					renamedProducts = nil
					return err
				}
				renamedProducts = append(renamedProducts, product.ProductID)
			}
			return nil
		},
		revertRenamed)
	workflow.addStep("rename filter metaobject",
		func(ctx context.Context) error {
			return s.catalog.UpdateMetaobjectFields(ctx, metaobject.ID, map[string]string{"name": newName})
		},
		func(ctx context.Context) error {
			return s.catalog.UpdateMetaobjectFields(ctx, metaobject.ID, map[string]string{"name": oldName})
		})

	if err := workflow.run(ctx); err != nil {
		return fmt.Errorf("%w: rename %s %q: %v", ErrRemoteFailed, kind, oldName, err)
	}

	if err := store.rename(ctx, id, newName); err != nil {
		workflow.unwindAll(ctx)
		if isConflict(err) {
			return fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, newName)
		}
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("dictionary value renamed",
		zap.String("kind", string(kind)),
		zap.String("from", oldName),
		zap.String("to", newName),
		zap.Int("cascaded", len(renamedProducts)))
	return nil
}

// Delete removes a dictionary value after confirming nothing references
// it. Styles release their family references instead of blocking.
func (s *DictionaryService) Delete(ctx context.Context, kind domain.DictionaryKind, id int64) error {
	store, spec, err := s.store(kind)
	if err != nil {
		return err
	}

	s.locks[kind].Lock()
	defer s.locks[kind].Unlock()

	entry, err := store.get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
		}
		return fmt.Errorf("dictionary: load %s: %w", kind, err)
	}

	products, err := s.catalog.ListProductsWithMetafield(ctx, spec.MetafieldNamespace, spec.MetafieldKey)
	if err != nil {
		return fmt.Errorf("%w: list products: %v", ErrRemoteFailed, err)
	}
	remoteRefs := 0
	for _, product := range products {
		if product.Value == entry.Name {
			remoteRefs++
		}
	}
	if remoteRefs > 0 {
		return fmt.Errorf("%w: %s %q is referenced by %d synced products", ErrConflict, kind, entry.Name, remoteRefs)
	}

	if kind == domain.KindStyle {
		if err := s.styles.ClearRingReferences(ctx, id); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
	} else {
		refs, err := store.countReferences(ctx, id)
		if err != nil {
			return fmt.Errorf("dictionary: count references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %s %q is referenced by %d local rows", ErrConflict, kind, entry.Name, refs)
		}
	}

	if _, choices, err := s.catalog.MetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey); err != nil {
		return fmt.Errorf("%w: read metafield choices: %v", ErrRemoteFailed, err)
	} else if containsChoice(choices, entry.Name) {
		err = s.catalog.UpdateMetafieldDefinitionChoices(ctx, spec.MetafieldNamespace, spec.MetafieldKey,
			removeChoice(choices, entry.Name))
		if err != nil {
			return fmt.Errorf("%w: shrink metafield choices: %v", ErrRemoteFailed, err)
		}
	}

	if definitionID, choices, err := s.catalog.MetaobjectDefinitionChoices(ctx, spec.MetaobjectType, spec.ChoiceField); err != nil {
		return fmt.Errorf("%w: read metaobject choices: %v", ErrRemoteFailed, err)
	} else if containsChoice(choices, entry.Name) {
		err = s.catalog.UpdateMetaobjectDefinitionChoices(ctx, definitionID, spec.ChoiceField,
			removeChoice(choices, entry.Name))
		if err != nil {
			return fmt.Errorf("%w: shrink metaobject choices: %v", ErrRemoteFailed, err)
		}
	}

	metaobject, err := s.catalog.FindMetaobject(ctx, spec.MetaobjectType, map[string]string{
		"name": entry.Name,
		"type": spec.ChoiceField,
	})
	switch {
	case err == nil:
		if err := s.catalog.DeleteMetaobject(ctx, metaobject.ID); err != nil {
			return fmt.Errorf("%w: delete metaobject: %v", ErrRemoteFailed, err)
		}
	case errors.Is(err, catalog.ErrNotFound):
		// Already gone upstream; nothing to remove.
	default:
		return fmt.Errorf("%w: find metaobject: %v", ErrRemoteFailed, err)
	}

	if err := store.delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("dictionary value deleted",
		zap.String("kind", string(kind)), zap.String("name", entry.Name))
	return nil
}

// UpdateImage replaces or clears the filter image of a dictionary
// value. The raw bytes are staged and uploaded to the remote file
// store; the metaobject then references the resulting file.
func (s *DictionaryService) UpdateImage(ctx context.Context, kind domain.DictionaryKind, id int64, filename, mimeType string, content []byte) error {
	store, spec, err := s.store(kind)
	if err != nil {
		return err
	}
	if !spec.HasImage {
		return fmt.Errorf("%w: %s values do not carry an image", ErrInvalidInput, kind)
	}

	s.locks[kind].Lock()
	defer s.locks[kind].Unlock()

	entry, err := store.get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
		}
		return fmt.Errorf("dictionary: load %s: %w", kind, err)
	}

	metaobject, err := s.catalog.FindMetaobject(ctx, spec.MetaobjectType, map[string]string{
		"name": entry.Name,
		"type": spec.ChoiceField,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("%w: filter metaobject for %s %q missing upstream", ErrConflict, kind, entry.Name)
		}
		return fmt.Errorf("%w: find metaobject: %v", ErrRemoteFailed, err)
	}

	if len(content) == 0 {
		if err := s.catalog.UpdateMetaobjectFields(ctx, metaobject.ID, map[string]string{"image": ""}); err != nil {
			return fmt.Errorf("%w: clear image: %v", ErrRemoteFailed, err)
		}
		if err := store.updateImage(ctx, id, ""); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		return nil
	}

	uploaded, err := s.catalog.UploadFile(ctx, filename, mimeType, content)
	if err != nil {
		return fmt.Errorf("%w: upload image: %v", ErrRemoteFailed, err)
	}
	if err := s.catalog.UpdateMetaobjectFields(ctx, metaobject.ID, map[string]string{"image": uploaded.FileID}); err != nil {
		return fmt.Errorf("%w: attach image: %v", ErrRemoteFailed, err)
	}
	if err := store.updateImage(ctx, id, uploaded.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("dictionary image updated",
		zap.String("kind", string(kind)), zap.String("name", entry.Name))
	return nil
}

func containsChoice(choices []string, value string) bool {
	for _, choice := range choices {
		if choice == value {
			return true
		}
	}
	return false
}

func replaceChoice(choices []string, oldValue, newValue string) []string {
	out := make([]string, 0, len(choices))
	seen := make(map[string]bool, len(choices))
	for _, choice := range choices {
		if choice == oldValue {
			choice = newValue
		}
		if seen[choice] {
			continue
		}
		seen[choice] = true
		out = append(out, choice)
	}
	return out
}

func removeChoice(choices []string, value string) []string {
	out := make([]string, 0, len(choices))
	for _, choice := range choices {
		if choice != value {
			out = append(out, choice)
		}
	}
	return out
}

type metalStore struct {
	repo repositories.MetalRepository
}

func (s metalStore) list(ctx context.Context) ([]DictionaryEntry, error) {
	metals, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]DictionaryEntry, 0, len(metals))
	for _, m := range metals {
		entries = append(entries, DictionaryEntry{ID: m.ID, Name: m.Name, Image: m.Image})
	}
	return entries, nil
}

func (s metalStore) get(ctx context.Context, id int64) (DictionaryEntry, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: m.ID, Name: m.Name, Image: m.Image}, nil
}

func (s metalStore) getByName(ctx context.Context, name string) (DictionaryEntry, error) {
	m, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: m.ID, Name: m.Name, Image: m.Image}, nil
}

func (s metalStore) insert(ctx context.Context, name, image string) (int64, error) {
	// Manually created metals have no supplier quality code; the name
	// doubles as the code.
	return s.repo.Insert(ctx, domain.Metal{Code: name, Name: name, Image: image})
}

func (s metalStore) rename(ctx context.Context, id int64, name string) error {
	return s.repo.Rename(ctx, id, name)
}

func (s metalStore) updateImage(ctx context.Context, id int64, imageURL string) error {
	return s.repo.UpdateImage(ctx, id, imageURL)
}

func (s metalStore) delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s metalStore) countReferences(ctx context.Context, id int64) (int64, error) {
	return s.repo.CountVariationReferences(ctx, id)
}

type stoneStore struct {
	repo repositories.StoneRepository
}

func (s stoneStore) list(ctx context.Context) ([]DictionaryEntry, error) {
	stones, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]DictionaryEntry, 0, len(stones))
	for _, st := range stones {
		entries = append(entries, DictionaryEntry{ID: st.ID, Name: st.Name, Image: st.Image})
	}
	return entries, nil
}

func (s stoneStore) get(ctx context.Context, id int64) (DictionaryEntry, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: st.ID, Name: st.Name, Image: st.Image}, nil
}

func (s stoneStore) getByName(ctx context.Context, name string) (DictionaryEntry, error) {
	st, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: st.ID, Name: st.Name, Image: st.Image}, nil
}

func (s stoneStore) insert(ctx context.Context, name, image string) (int64, error) {
	return s.repo.Insert(ctx, domain.Stone{Name: name, Image: image})
}

func (s stoneStore) rename(ctx context.Context, id int64, name string) error {
	return s.repo.Rename(ctx, id, name)
}

func (s stoneStore) updateImage(ctx context.Context, id int64, imageURL string) error {
	return s.repo.UpdateImage(ctx, id, imageURL)
}

func (s stoneStore) delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s stoneStore) countReferences(ctx context.Context, id int64) (int64, error) {
	return s.repo.CountVariationReferences(ctx, id)
}

type styleStore struct {
	repo repositories.StyleRepository
}

func (s styleStore) list(ctx context.Context) ([]DictionaryEntry, error) {
	styles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]DictionaryEntry, 0, len(styles))
	for _, st := range styles {
		entries = append(entries, DictionaryEntry{ID: st.ID, Name: st.Name, Image: st.Image})
	}
	return entries, nil
}

func (s styleStore) get(ctx context.Context, id int64) (DictionaryEntry, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: st.ID, Name: st.Name, Image: st.Image}, nil
}

func (s styleStore) getByName(ctx context.Context, name string) (DictionaryEntry, error) {
	st, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: st.ID, Name: st.Name, Image: st.Image}, nil
}

func (s styleStore) insert(ctx context.Context, name, image string) (int64, error) {
	return s.repo.Insert(ctx, domain.Style{Name: name, Image: image})
}

func (s styleStore) rename(ctx context.Context, id int64, name string) error {
	return s.repo.Rename(ctx, id, name)
}

func (s styleStore) updateImage(ctx context.Context, id int64, imageURL string) error {
	return s.repo.UpdateImage(ctx, id, imageURL)
}

func (s styleStore) delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s styleStore) countReferences(ctx context.Context, id int64) (int64, error) {
	return s.repo.CountRingReferences(ctx, id)
}

type groupStore struct {
	repo repositories.GroupRepository
}

func (s groupStore) list(ctx context.Context) ([]DictionaryEntry, error) {
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]DictionaryEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, DictionaryEntry{ID: g.ID, Name: g.Name})
	}
	return entries, nil
}

func (s groupStore) get(ctx context.Context, id int64) (DictionaryEntry, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: g.ID, Name: g.Name}, nil
}

func (s groupStore) getByName(ctx context.Context, name string) (DictionaryEntry, error) {
	g, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return DictionaryEntry{}, err
	}
	return DictionaryEntry{ID: g.ID, Name: g.Name}, nil
}

func (s groupStore) insert(ctx context.Context, name, _ string) (int64, error) {
	return s.repo.Insert(ctx, domain.Group{Name: name})
}

func (s groupStore) rename(ctx context.Context, id int64, name string) error {
	return s.repo.Rename(ctx, id, name)
}

func (s groupStore) updateImage(ctx context.Context, id int64, imageURL string) error {
	return errors.New("dictionary: groups do not carry images")
}

func (s groupStore) delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s groupStore) countReferences(ctx context.Context, id int64) (int64, error) {
	return s.repo.CountRingReferences(ctx, id)
}
