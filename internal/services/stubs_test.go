package services

import (
	"context"
	"fmt"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// repoError is a test RepositoryError with settable classifications.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repoError) Error() string       { return e.msg }
func (e repoError) IsNotFound() bool    { return e.notFound }
func (e repoError) IsConflict() bool    { return e.conflict }
func (e repoError) IsUnavailable() bool { return e.unavailable }

func notFoundErr(msg string) error { return repoError{msg: msg, notFound: true} }
func conflictErr(msg string) error { return repoError{msg: msg, conflict: true} }

type statusChange struct {
	productID string
	status    string
}

// fakeCatalog records every remote call and answers with canned data.
// Individual methods are overridable through the corresponding Fn field.
type fakeCatalog struct {
	calls []string

	createProductFn func(ctx context.Context, input catalog.ProductCreateInput) (catalog.CreatedProduct, error)
	createSeq       int
	createdProducts []catalog.ProductCreateInput

	updateProductFn func(ctx context.Context, input catalog.ProductUpdateInput) error
	productUpdates  []catalog.ProductUpdateInput

	updateStatusFn func(ctx context.Context, productID, status string) error
	statusChanges  []statusChange

	deleteProductFn func(ctx context.Context, productID string) error
	deletedProducts []string

	collectionExistsFn func(ctx context.Context, collectionID string) (bool, error)

	addToCollectionFn func(ctx context.Context, collectionID string, productIDs []string) error
	collectionAdds    [][]string

	updateVariantFn func(ctx context.Context, productID string, input catalog.VariantUpdateInput) error
	variantUpdates  []catalog.VariantUpdateInput

	adjustInventoryFn func(ctx context.Context, inventoryItemID, locationID string, delta int) error
	inventoryDeltas   []int

	publishFn func(ctx context.Context, productID string, publicationIDs []string) error
	published []string

	setMetafieldsFn func(ctx context.Context, inputs []catalog.MetafieldSetInput) error
	metafieldSets   [][]catalog.MetafieldSetInput

	listProductsWithMetafieldFn func(ctx context.Context, namespace, key string) ([]catalog.ProductMetafieldValue, error)
	productsWithMetafield       []catalog.ProductMetafieldValue

	metafieldChoicesFn func(ctx context.Context, namespace, key string) (string, []string, error)
	metafieldChoices   []string

	updateMetafieldChoicesFn func(ctx context.Context, namespace, key string, choices []string) error
	metafieldChoiceWrites    [][]string

	metaobjectChoicesFn func(ctx context.Context, metaobjectType, fieldKey string) (string, []string, error)
	metaobjectChoices   []string

	updateMetaobjectChoicesFn func(ctx context.Context, definitionID, fieldKey string, choices []string) error
	metaobjectChoiceWrites    [][]string

	findMetaobjectFn func(ctx context.Context, metaobjectType string, match map[string]string) (catalog.Metaobject, error)
	metaobjects      map[string]catalog.Metaobject

	createMetaobjectFn func(ctx context.Context, metaobjectType string, fields map[string]string) (string, error)
	createdMetaobjects []map[string]string

	updateMetaobjectFieldsFn func(ctx context.Context, id string, fields map[string]string) error
	metaobjectFieldWrites    []map[string]string

	deleteMetaobjectFn func(ctx context.Context, id string) error
	deletedMetaobjects []string

	uploadFileFn func(ctx context.Context, filename, mimeType string, content []byte) (catalog.UploadedFile, error)
}

func (f *fakeCatalog) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeCatalog) countCalls(name string) int {
	n := 0
	for _, call := range f.calls {
		if call == name {
			n++
		}
	}
	return n
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, input catalog.ProductCreateInput) (catalog.CreatedProduct, error) {
	f.record("CreateProduct")
	if f.createProductFn != nil {
		return f.createProductFn(ctx, input)
	}
	f.createSeq++
	f.createdProducts = append(f.createdProducts, input)
	return catalog.CreatedProduct{
		ProductID:       fmt.Sprintf("gid://catalog/Product/%d", f.createSeq),
		VariantID:       fmt.Sprintf("gid://catalog/ProductVariant/%d", f.createSeq),
		InventoryItemID: fmt.Sprintf("gid://catalog/InventoryItem/%d", f.createSeq),
	}, nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, input catalog.ProductUpdateInput) error {
	f.record("UpdateProduct")
	if f.updateProductFn != nil {
		return f.updateProductFn(ctx, input)
	}
	f.productUpdates = append(f.productUpdates, input)
	return nil
}

func (f *fakeCatalog) UpdateProductStatus(ctx context.Context, productID, status string) error {
	f.record("UpdateProductStatus")
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, productID, status)
	}
	f.statusChanges = append(f.statusChanges, statusChange{productID: productID, status: status})
	return nil
}

func (f *fakeCatalog) DeleteProduct(ctx context.Context, productID string) error {
	f.record("DeleteProduct")
	if f.deleteProductFn != nil {
		return f.deleteProductFn(ctx, productID)
	}
	f.deletedProducts = append(f.deletedProducts, productID)
	return nil
}

func (f *fakeCatalog) CollectionExists(ctx context.Context, collectionID string) (bool, error) {
	f.record("CollectionExists")
	if f.collectionExistsFn != nil {
		return f.collectionExistsFn(ctx, collectionID)
	}
	return true, nil
}

func (f *fakeCatalog) AddProductsToCollection(ctx context.Context, collectionID string, productIDs []string) error {
	f.record("AddProductsToCollection")
	if f.addToCollectionFn != nil {
		return f.addToCollectionFn(ctx, collectionID, productIDs)
	}
	f.collectionAdds = append(f.collectionAdds, productIDs)
	return nil
}

func (f *fakeCatalog) UpdateVariant(ctx context.Context, productID string, input catalog.VariantUpdateInput) error {
	f.record("UpdateVariant")
	if f.updateVariantFn != nil {
		return f.updateVariantFn(ctx, productID, input)
	}
	f.variantUpdates = append(f.variantUpdates, input)
	return nil
}

func (f *fakeCatalog) PrimaryLocationID(ctx context.Context) (string, error) {
	f.record("PrimaryLocationID")
	return "gid://catalog/Location/1", nil
}

func (f *fakeCatalog) AdjustInventory(ctx context.Context, inventoryItemID, locationID string, delta int) error {
	f.record("AdjustInventory")
	if f.adjustInventoryFn != nil {
		return f.adjustInventoryFn(ctx, inventoryItemID, locationID, delta)
	}
	f.inventoryDeltas = append(f.inventoryDeltas, delta)
	return nil
}

func (f *fakeCatalog) ListPublications(ctx context.Context) ([]string, error) {
	f.record("ListPublications")
	return []string{"gid://catalog/Publication/1"}, nil
}

func (f *fakeCatalog) PublishProduct(ctx context.Context, productID string, publicationIDs []string) error {
	f.record("PublishProduct")
	if f.publishFn != nil {
		return f.publishFn(ctx, productID, publicationIDs)
	}
	f.published = append(f.published, productID)
	return nil
}

func (f *fakeCatalog) SetMetafields(ctx context.Context, inputs []catalog.MetafieldSetInput) error {
	f.record("SetMetafields")
	if f.setMetafieldsFn != nil {
		return f.setMetafieldsFn(ctx, inputs)
	}
	f.metafieldSets = append(f.metafieldSets, inputs)
	return nil
}

func (f *fakeCatalog) ListProductsWithMetafield(ctx context.Context, namespace, key string) ([]catalog.ProductMetafieldValue, error) {
	f.record("ListProductsWithMetafield")
	if f.listProductsWithMetafieldFn != nil {
		return f.listProductsWithMetafieldFn(ctx, namespace, key)
	}
	return f.productsWithMetafield, nil
}

func (f *fakeCatalog) MetafieldDefinitionChoices(ctx context.Context, namespace, key string) (string, []string, error) {
	f.record("MetafieldDefinitionChoices")
	if f.metafieldChoicesFn != nil {
		return f.metafieldChoicesFn(ctx, namespace, key)
	}
	return "gid://catalog/MetafieldDefinition/1", append([]string(nil), f.metafieldChoices...), nil
}

func (f *fakeCatalog) UpdateMetafieldDefinitionChoices(ctx context.Context, namespace, key string, choices []string) error {
	f.record("UpdateMetafieldDefinitionChoices")
	if f.updateMetafieldChoicesFn != nil {
		return f.updateMetafieldChoicesFn(ctx, namespace, key, choices)
	}
	f.metafieldChoiceWrites = append(f.metafieldChoiceWrites, choices)
	return nil
}

func (f *fakeCatalog) MetaobjectDefinitionChoices(ctx context.Context, metaobjectType, fieldKey string) (string, []string, error) {
	f.record("MetaobjectDefinitionChoices")
	if f.metaobjectChoicesFn != nil {
		return f.metaobjectChoicesFn(ctx, metaobjectType, fieldKey)
	}
	return "gid://catalog/MetaobjectDefinition/1", append([]string(nil), f.metaobjectChoices...), nil
}

func (f *fakeCatalog) UpdateMetaobjectDefinitionChoices(ctx context.Context, definitionID, fieldKey string, choices []string) error {
	f.record("UpdateMetaobjectDefinitionChoices")
	if f.updateMetaobjectChoicesFn != nil {
		return f.updateMetaobjectChoicesFn(ctx, definitionID, fieldKey, choices)
	}
	f.metaobjectChoiceWrites = append(f.metaobjectChoiceWrites, choices)
	return nil
}

func (f *fakeCatalog) FindMetaobject(ctx context.Context, metaobjectType string, match map[string]string) (catalog.Metaobject, error) {
	f.record("FindMetaobject")
	if f.findMetaobjectFn != nil {
		return f.findMetaobjectFn(ctx, metaobjectType, match)
	}
	if obj, ok := f.metaobjects[match["name"]]; ok {
		return obj, nil
	}
	return catalog.Metaobject{}, catalog.ErrNotFound
}

func (f *fakeCatalog) CreateMetaobject(ctx context.Context, metaobjectType string, fields map[string]string) (string, error) {
	f.record("CreateMetaobject")
	if f.createMetaobjectFn != nil {
		return f.createMetaobjectFn(ctx, metaobjectType, fields)
	}
	f.createdMetaobjects = append(f.createdMetaobjects, fields)
	return fmt.Sprintf("gid://catalog/Metaobject/%d", len(f.createdMetaobjects)), nil
}

func (f *fakeCatalog) UpdateMetaobjectFields(ctx context.Context, id string, fields map[string]string) error {
	f.record("UpdateMetaobjectFields")
	if f.updateMetaobjectFieldsFn != nil {
		return f.updateMetaobjectFieldsFn(ctx, id, fields)
	}
	f.metaobjectFieldWrites = append(f.metaobjectFieldWrites, fields)
	return nil
}

func (f *fakeCatalog) DeleteMetaobject(ctx context.Context, id string) error {
	f.record("DeleteMetaobject")
	if f.deleteMetaobjectFn != nil {
		return f.deleteMetaobjectFn(ctx, id)
	}
	f.deletedMetaobjects = append(f.deletedMetaobjects, id)
	return nil
}

func (f *fakeCatalog) UploadFile(ctx context.Context, filename, mimeType string, content []byte) (catalog.UploadedFile, error) {
	f.record("UploadFile")
	if f.uploadFileFn != nil {
		return f.uploadFileFn(ctx, filename, mimeType, content)
	}
	return catalog.UploadedFile{
		FileID: "gid://catalog/MediaImage/1",
		URL:    "https://cdn.example.com/" + filename,
	}, nil
}

// fakeVariationRepo is an in-memory VariationRepository.
type fakeVariationRepo struct {
	byID      map[int64]domain.Variation
	skuPrices []repositories.SKUPrice
	insertSeq int64
	rows      []repositories.ProductRow

	setStateErr  error
	setStatesErr error
	updateErr    error
	deleteErr    error
	deleteErrFor map[int64]error

	stateUpdates []repositories.SyncStateUpdate
	stateBatches [][]repositories.SyncStateUpdate
	deletedIDs   []int64
	updatedRows  []domain.Variation
	inserted     []domain.Variation
	priceUpdates []repositories.PriceUpdate
	clearedIDs   []string
}

func newFakeVariationRepo(variations ...domain.Variation) *fakeVariationRepo {
	repo := &fakeVariationRepo{byID: make(map[int64]domain.Variation)}
	for _, v := range variations {
		repo.byID[v.ID] = v
	}
	return repo
}

func (r *fakeVariationRepo) ListSKUPrices(ctx context.Context) ([]repositories.SKUPrice, error) {
	return append([]repositories.SKUPrice(nil), r.skuPrices...), nil
}

func (r *fakeVariationRepo) InsertBatch(ctx context.Context, variations []domain.Variation) error {
	r.inserted = append(r.inserted, variations...)
	for _, v := range variations {
		r.insertSeq++
		r.skuPrices = append(r.skuPrices, repositories.SKUPrice{
			ID:            1000 + r.insertSeq,
			SKU:           v.SKU,
			Price:         v.Price,
			ShowcasePrice: v.ShowcasePrice,
		})
	}
	return nil
}

func (r *fakeVariationRepo) UpdatePrices(ctx context.Context, updates []repositories.PriceUpdate) error {
	r.priceUpdates = append(r.priceUpdates, updates...)
	for _, update := range updates {
		for i := range r.skuPrices {
			if r.skuPrices[i].ID == update.ID {
				r.skuPrices[i].Price = update.Price
				r.skuPrices[i].ShowcasePrice = update.ShowcasePrice
			}
		}
	}
	return nil
}

func (r *fakeVariationRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err, ok := r.deleteErrFor[id]; ok {
			return err
		}
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for _, id := range ids {
		delete(r.byID, id)
		for i := 0; i < len(r.skuPrices); i++ {
			if r.skuPrices[i].ID == id {
				r.skuPrices = append(r.skuPrices[:i], r.skuPrices[i+1:]...)
				i--
			}
		}
	}
	r.deletedIDs = append(r.deletedIDs, ids...)
	return nil
}

func (r *fakeVariationRepo) Get(ctx context.Context, id int64) (domain.Variation, error) {
	v, ok := r.byID[id]
	if !ok {
		return domain.Variation{}, notFoundErr("variation not found")
	}
	return v, nil
}

func (r *fakeVariationRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Variation, error) {
	var out []domain.Variation
	for _, id := range ids {
		if v, ok := r.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVariationRepo) ListByRingID(ctx context.Context, ringID int64) ([]domain.Variation, error) {
	var out []domain.Variation
	for _, v := range r.byID {
		if v.RingID == ringID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVariationRepo) SetSyncState(ctx context.Context, update repositories.SyncStateUpdate) error {
	if r.setStateErr != nil {
		return r.setStateErr
	}
	r.stateUpdates = append(r.stateUpdates, update)
	if v, ok := r.byID[update.ID]; ok {
		v.Sync = update.Sync
		v.SyncID = update.SyncID
		v.VariantSyncID = update.VariantSyncID
		r.byID[update.ID] = v
	}
	return nil
}

func (r *fakeVariationRepo) SetSyncStates(ctx context.Context, updates []repositories.SyncStateUpdate) error {
	if r.setStatesErr != nil {
		return r.setStatesErr
	}
	r.stateBatches = append(r.stateBatches, updates)
	for _, update := range updates {
		if v, ok := r.byID[update.ID]; ok {
			v.Sync = update.Sync
			v.SyncID = update.SyncID
			v.VariantSyncID = update.VariantSyncID
			r.byID[update.ID] = v
		}
	}
	return nil
}

func (r *fakeVariationRepo) ClearSyncByRemoteID(ctx context.Context, syncID string) error {
	r.clearedIDs = append(r.clearedIDs, syncID)
	for id, v := range r.byID {
		if v.SyncID == syncID {
			v.Sync = false
			v.SyncID = ""
			v.VariantSyncID = ""
			r.byID[id] = v
		}
	}
	return nil
}

func (r *fakeVariationRepo) Update(ctx context.Context, variation domain.Variation) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updatedRows = append(r.updatedRows, variation)
	r.byID[variation.ID] = variation
	return nil
}

func (r *fakeVariationRepo) ListProducts(ctx context.Context, filter repositories.ProductListingFilter) ([]repositories.ProductRow, int, error) {
	return r.rows, len(r.rows), nil
}

// fakeRingRepo is an in-memory RingRepository.
type fakeRingRepo struct {
	byID map[int64]domain.Ring

	nextID        int64
	emptyRingIDs  []int64
	assignErr     error
	unassigned    []repositories.UnassignedRing
	assigned      []repositories.AssignedRing
	assignedTotal int

	insertedGroups []string
	deletedIDs     []int64
	assignments    []int64
}

func newFakeRingRepo(rings ...domain.Ring) *fakeRingRepo {
	repo := &fakeRingRepo{byID: make(map[int64]domain.Ring)}
	for _, ring := range rings {
		repo.byID[ring.ID] = ring
		if ring.ID > repo.nextID {
			repo.nextID = ring.ID
		}
	}
	return repo
}

func (r *fakeRingRepo) InsertIgnoreSupplierGroups(ctx context.Context, supplierGroupIDs []string) error {
	r.insertedGroups = append(r.insertedGroups, supplierGroupIDs...)
	for _, groupID := range supplierGroupIDs {
		if r.findBySupplierGroup(groupID) != nil {
			continue
		}
		r.nextID++
		r.byID[r.nextID] = domain.Ring{ID: r.nextID, SupplierGroupID: groupID}
	}
	return nil
}

func (r *fakeRingRepo) findBySupplierGroup(groupID string) *domain.Ring {
	for _, ring := range r.byID {
		if ring.SupplierGroupID == groupID {
			found := ring
			return &found
		}
	}
	return nil
}

func (r *fakeRingRepo) ListBySupplierGroupIDs(ctx context.Context, supplierGroupIDs []string) ([]domain.Ring, error) {
	var out []domain.Ring
	for _, groupID := range supplierGroupIDs {
		if ring := r.findBySupplierGroup(groupID); ring != nil {
			out = append(out, *ring)
		}
	}
	return out, nil
}

func (r *fakeRingRepo) Get(ctx context.Context, id int64) (domain.Ring, error) {
	ring, ok := r.byID[id]
	if !ok {
		return domain.Ring{}, notFoundErr("ring not found")
	}
	return ring, nil
}

func (r *fakeRingRepo) ListZeroVariationIDs(ctx context.Context) ([]int64, error) {
	return r.emptyRingIDs, nil
}

func (r *fakeRingRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		delete(r.byID, id)
	}
	r.deletedIDs = append(r.deletedIDs, ids...)
	return nil
}

func (r *fakeRingRepo) UpdateAssignments(ctx context.Context, id, groupID, categoryID, styleID, genderID int64) error {
	if r.assignErr != nil {
		return r.assignErr
	}
	ring, ok := r.byID[id]
	if !ok {
		return notFoundErr("ring not found")
	}
	ring.GroupID = groupID
	ring.CategoryID = categoryID
	ring.StyleID = styleID
	ring.GenderID = genderID
	r.byID[id] = ring
	r.assignments = append(r.assignments, id)
	return nil
}

func (r *fakeRingRepo) ListUnassigned(ctx context.Context) ([]repositories.UnassignedRing, error) {
	return r.unassigned, nil
}

func (r *fakeRingRepo) ListAssigned(ctx context.Context, filter repositories.AssignedRingFilter) ([]repositories.AssignedRing, int, error) {
	return r.assigned, r.assignedTotal, nil
}

// fakeMetalRepo is an in-memory MetalRepository.
type fakeMetalRepo struct {
	byID map[int64]domain.Metal

	nextID    int64
	insertErr error
	renameErr error
	deleteErr error
	refCount  int64

	renamed []string
	deleted []int64
	images  map[int64]string
}

func newFakeMetalRepo(metals ...domain.Metal) *fakeMetalRepo {
	repo := &fakeMetalRepo{byID: make(map[int64]domain.Metal), images: make(map[int64]string)}
	for _, m := range metals {
		repo.byID[m.ID] = m
		if m.ID > repo.nextID {
			repo.nextID = m.ID
		}
	}
	return repo
}

func (r *fakeMetalRepo) List(ctx context.Context) ([]domain.Metal, error) {
	var out []domain.Metal
	for _, m := range r.byID {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMetalRepo) Get(ctx context.Context, id int64) (domain.Metal, error) {
	m, ok := r.byID[id]
	if !ok {
		return domain.Metal{}, notFoundErr("metal not found")
	}
	return m, nil
}

func (r *fakeMetalRepo) GetByName(ctx context.Context, name string) (domain.Metal, error) {
	for _, m := range r.byID {
		if m.Name == name {
			return m, nil
		}
	}
	return domain.Metal{}, notFoundErr("metal not found")
}

func (r *fakeMetalRepo) InsertIgnoreCodes(ctx context.Context, codeNames map[string]string) error {
	for code, name := range codeNames {
		exists := false
		for _, m := range r.byID {
			if m.Code == code {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		r.nextID++
		r.byID[r.nextID] = domain.Metal{ID: r.nextID, Code: code, Name: name}
	}
	return nil
}

func (r *fakeMetalRepo) Insert(ctx context.Context, metal domain.Metal) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.nextID++
	metal.ID = r.nextID
	r.byID[metal.ID] = metal
	return metal.ID, nil
}

func (r *fakeMetalRepo) Rename(ctx context.Context, id int64, name string) error {
	if r.renameErr != nil {
		return r.renameErr
	}
	m, ok := r.byID[id]
	if !ok {
		return notFoundErr("metal not found")
	}
	m.Name = name
	r.byID[id] = m
	r.renamed = append(r.renamed, name)
	return nil
}

func (r *fakeMetalRepo) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	r.images[id] = imageURL
	return nil
}

func (r *fakeMetalRepo) Delete(ctx context.Context, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeMetalRepo) CountVariationReferences(ctx context.Context, id int64) (int64, error) {
	return r.refCount, nil
}

// fakeStoneRepo is an in-memory StoneRepository.
type fakeStoneRepo struct {
	byID map[int64]domain.Stone

	nextID   int64
	refCount int64
	deleted  []int64
}

func newFakeStoneRepo(stones ...domain.Stone) *fakeStoneRepo {
	repo := &fakeStoneRepo{byID: make(map[int64]domain.Stone)}
	for _, st := range stones {
		repo.byID[st.ID] = st
		if st.ID > repo.nextID {
			repo.nextID = st.ID
		}
	}
	return repo
}

func (r *fakeStoneRepo) List(ctx context.Context) ([]domain.Stone, error) {
	var out []domain.Stone
	for _, st := range r.byID {
		out = append(out, st)
	}
	return out, nil
}

func (r *fakeStoneRepo) Get(ctx context.Context, id int64) (domain.Stone, error) {
	st, ok := r.byID[id]
	if !ok {
		return domain.Stone{}, notFoundErr("stone not found")
	}
	return st, nil
}

func (r *fakeStoneRepo) GetByName(ctx context.Context, name string) (domain.Stone, error) {
	for _, st := range r.byID {
		if st.Name == name {
			return st, nil
		}
	}
	return domain.Stone{}, notFoundErr("stone not found")
}

func (r *fakeStoneRepo) InsertIgnoreNames(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := r.GetByName(ctx, name); err == nil {
			continue
		}
		r.nextID++
		r.byID[r.nextID] = domain.Stone{ID: r.nextID, Name: name}
	}
	return nil
}

func (r *fakeStoneRepo) Insert(ctx context.Context, stone domain.Stone) (int64, error) {
	r.nextID++
	stone.ID = r.nextID
	r.byID[stone.ID] = stone
	return stone.ID, nil
}

func (r *fakeStoneRepo) Rename(ctx context.Context, id int64, name string) error {
	st, ok := r.byID[id]
	if !ok {
		return notFoundErr("stone not found")
	}
	st.Name = name
	r.byID[id] = st
	return nil
}

func (r *fakeStoneRepo) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	st, ok := r.byID[id]
	if !ok {
		return notFoundErr("stone not found")
	}
	st.Image = imageURL
	r.byID[id] = st
	return nil
}

func (r *fakeStoneRepo) Delete(ctx context.Context, id int64) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeStoneRepo) CountVariationReferences(ctx context.Context, id int64) (int64, error) {
	return r.refCount, nil
}

// fakeStyleRepo is an in-memory StyleRepository.
type fakeStyleRepo struct {
	byID map[int64]domain.Style

	nextID   int64
	refCount int64
	cleared  []int64
	deleted  []int64
}

func newFakeStyleRepo(styles ...domain.Style) *fakeStyleRepo {
	repo := &fakeStyleRepo{byID: make(map[int64]domain.Style)}
	for _, st := range styles {
		repo.byID[st.ID] = st
		if st.ID > repo.nextID {
			repo.nextID = st.ID
		}
	}
	return repo
}

func (r *fakeStyleRepo) List(ctx context.Context) ([]domain.Style, error) {
	var out []domain.Style
	for _, st := range r.byID {
		out = append(out, st)
	}
	return out, nil
}

func (r *fakeStyleRepo) Get(ctx context.Context, id int64) (domain.Style, error) {
	st, ok := r.byID[id]
	if !ok {
		return domain.Style{}, notFoundErr("style not found")
	}
	return st, nil
}

func (r *fakeStyleRepo) GetByName(ctx context.Context, name string) (domain.Style, error) {
	for _, st := range r.byID {
		if st.Name == name {
			return st, nil
		}
	}
	return domain.Style{}, notFoundErr("style not found")
}

func (r *fakeStyleRepo) Insert(ctx context.Context, style domain.Style) (int64, error) {
	r.nextID++
	style.ID = r.nextID
	r.byID[style.ID] = style
	return style.ID, nil
}

func (r *fakeStyleRepo) Rename(ctx context.Context, id int64, name string) error {
	st, ok := r.byID[id]
	if !ok {
		return notFoundErr("style not found")
	}
	st.Name = name
	r.byID[id] = st
	return nil
}

func (r *fakeStyleRepo) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	st, ok := r.byID[id]
	if !ok {
		return notFoundErr("style not found")
	}
	st.Image = imageURL
	r.byID[id] = st
	return nil
}

func (r *fakeStyleRepo) Delete(ctx context.Context, id int64) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeStyleRepo) CountRingReferences(ctx context.Context, id int64) (int64, error) {
	return r.refCount, nil
}

func (r *fakeStyleRepo) ClearRingReferences(ctx context.Context, id int64) error {
	r.cleared = append(r.cleared, id)
	return nil
}

// fakeGroupRepo is an in-memory GroupRepository.
type fakeGroupRepo struct {
	byID map[int64]domain.Group

	nextID   int64
	refCount int64
	deleted  []int64
}

func newFakeGroupRepo(groups ...domain.Group) *fakeGroupRepo {
	repo := &fakeGroupRepo{byID: make(map[int64]domain.Group)}
	for _, g := range groups {
		repo.byID[g.ID] = g
		if g.ID > repo.nextID {
			repo.nextID = g.ID
		}
	}
	return repo
}

func (r *fakeGroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	var out []domain.Group
	for _, g := range r.byID {
		out = append(out, g)
	}
	return out, nil
}

func (r *fakeGroupRepo) Get(ctx context.Context, id int64) (domain.Group, error) {
	g, ok := r.byID[id]
	if !ok {
		return domain.Group{}, notFoundErr("group not found")
	}
	return g, nil
}

func (r *fakeGroupRepo) GetByName(ctx context.Context, name string) (domain.Group, error) {
	for _, g := range r.byID {
		if g.Name == name {
			return g, nil
		}
	}
	return domain.Group{}, notFoundErr("group not found")
}

func (r *fakeGroupRepo) Insert(ctx context.Context, group domain.Group) (int64, error) {
	r.nextID++
	group.ID = r.nextID
	r.byID[group.ID] = group
	return group.ID, nil
}

func (r *fakeGroupRepo) Rename(ctx context.Context, id int64, name string) error {
	g, ok := r.byID[id]
	if !ok {
		return notFoundErr("group not found")
	}
	g.Name = name
	r.byID[id] = g
	return nil
}

func (r *fakeGroupRepo) Delete(ctx context.Context, id int64) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeGroupRepo) CountRingReferences(ctx context.Context, id int64) (int64, error) {
	return r.refCount, nil
}

// fakeWebCategoryRepo is an in-memory WebCategoryRepository.
type fakeWebCategoryRepo struct {
	bySupplierID map[int64]domain.WebCategory

	nextID             int64
	memberships        []repositories.Membership
	deletedMemberships []int64
}

func newFakeWebCategoryRepo() *fakeWebCategoryRepo {
	return &fakeWebCategoryRepo{bySupplierID: make(map[int64]domain.WebCategory)}
}

func (r *fakeWebCategoryRepo) InsertIgnore(ctx context.Context, tags []domain.WebCategory) error {
	for _, tag := range tags {
		if _, ok := r.bySupplierID[tag.SupplierID]; ok {
			continue
		}
		r.nextID++
		tag.ID = r.nextID
		r.bySupplierID[tag.SupplierID] = tag
	}
	return nil
}

func (r *fakeWebCategoryRepo) ListBySupplierIDs(ctx context.Context, supplierIDs []int64) ([]domain.WebCategory, error) {
	var out []domain.WebCategory
	for _, id := range supplierIDs {
		if tag, ok := r.bySupplierID[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (r *fakeWebCategoryRepo) InsertIgnoreMemberships(ctx context.Context, memberships []repositories.Membership) error {
	r.memberships = append(r.memberships, memberships...)
	return nil
}

func (r *fakeWebCategoryRepo) DeleteMembershipsByRingIDs(ctx context.Context, ringIDs []int64) error {
	r.deletedMemberships = append(r.deletedMemberships, ringIDs...)
	return nil
}

// fakeCategoryRepo is an in-memory CategoryRepository.
type fakeCategoryRepo struct {
	byID map[int64]domain.Category
}

func newFakeCategoryRepo(categories ...domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{byID: make(map[int64]domain.Category)}
	for _, c := range categories {
		repo.byID[c.ID] = c
	}
	return repo
}

func (r *fakeCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) Get(ctx context.Context, id int64) (domain.Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return domain.Category{}, notFoundErr("category not found")
	}
	return c, nil
}

func (r *fakeCategoryRepo) InsertIfAbsent(ctx context.Context, category domain.Category) error {
	if _, ok := r.byID[category.ID]; !ok {
		r.byID[category.ID] = category
	}
	return nil
}

// fakeGenderRepo is an in-memory GenderRepository.
type fakeGenderRepo struct {
	byID map[int64]domain.Gender
}

func newFakeGenderRepo(genders ...domain.Gender) *fakeGenderRepo {
	repo := &fakeGenderRepo{byID: make(map[int64]domain.Gender)}
	for _, g := range genders {
		repo.byID[g.ID] = g
	}
	return repo
}

func (r *fakeGenderRepo) List(ctx context.Context) ([]domain.Gender, error) {
	var out []domain.Gender
	for _, g := range r.byID {
		out = append(out, g)
	}
	return out, nil
}

func (r *fakeGenderRepo) Get(ctx context.Context, id int64) (domain.Gender, error) {
	g, ok := r.byID[id]
	if !ok {
		return domain.Gender{}, notFoundErr("gender not found")
	}
	return g, nil
}

// fakeUnitOfWork runs the callback against a fixed repository set.
type fakeUnitOfWork struct {
	repos    repositories.TxRepositories
	beginErr error
	runs     int
}

func (u *fakeUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	u.runs++
	return fn(ctx, u.repos)
}
