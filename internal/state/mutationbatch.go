package state

import (
	"fmt"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
)

// Put is one content-addressed write: Value is canonicalized and stored,
// Kind is an informational tag (e.g. "schema", "row") not used for
// addressing.
type Put struct {
	Kind  string
	Value ir.Value
}

// RefSet points a ref name at either the hash produced by a Put earlier in
// the same batch (PutIndex >= 0) or a directly supplied hash.
type RefSet struct {
	Name     string
	PutIndex int // -1 when Hash is used directly
	Hash     string
}

// MutationBatch is the ordered recipe a state gate returns: puts, then ref
// sets (which may reference a put by index), then ref deletes, then
// follow-up events for re-emission. Ordering is deliberate: puts must be
// applied before refs so a ref is never left pointing at a missing blob.
type MutationBatch struct {
	Puts      []Put
	RefSets   []RefSet
	RefDels   []string
	FollowUps []event.Event
}

// NewMutationBatch builds an empty batch.
func NewMutationBatch() *MutationBatch {
	return &MutationBatch{}
}

// Put appends a content put and returns its index within the batch, for
// use with SetFromPut.
func (b *MutationBatch) Put(kind string, value ir.Value) int {
	b.Puts = append(b.Puts, Put{Kind: kind, Value: value})
	return len(b.Puts) - 1
}

// SetFromPut points name at the hash that will be produced by the put at
// putIndex.
func (b *MutationBatch) SetFromPut(name string, putIndex int) {
	b.RefSets = append(b.RefSets, RefSet{Name: name, PutIndex: putIndex, Hash: ""})
}

// SetHash points name directly at hash, bypassing any put in this batch.
func (b *MutationBatch) SetHash(name string, hash string) {
	b.RefSets = append(b.RefSets, RefSet{Name: name, PutIndex: -1, Hash: hash})
}

// Delete removes a ref by name.
func (b *MutationBatch) Delete(name string) {
	b.RefDels = append(b.RefDels, name)
}

// Emit appends a follow-up event for re-emission after the batch applies.
func (b *MutationBatch) Emit(e event.Event) {
	b.FollowUps = append(b.FollowUps, e)
}

// ErrPutIndexOutOfRange is returned when a RefSet references a put index
// that does not exist in the batch.
type ErrPutIndexOutOfRange struct {
	Name  string
	Index int
}

func (e ErrPutIndexOutOfRange) Error() string {
	return fmt.Sprintf("state: ref %q references put index %d out of range", e.Name, e.Index)
}

// Validate checks every RefSet's put-index reference is in range.
func (b *MutationBatch) Validate() error {
	for _, rs := range b.RefSets {
		if rs.PutIndex >= 0 && rs.PutIndex >= len(b.Puts) {
			return ErrPutIndexOutOfRange{Name: rs.Name, Index: rs.PutIndex}
		}
	}
	return nil
}
