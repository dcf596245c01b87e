package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection is an in-memory stand-in for the subset of *mongo.Collection
// the repositories use. It understands equality, $in, $gte and $lte filters,
// single-key ascending sorts and $setOnInsert upserts.
type fakeCollection struct {
	t          *testing.T
	mu         sync.Mutex
	docs       []bson.M
	uniqueKeys []string

	findErr   error
	insertErr error
	updateErr error

	insertCalls int
	findFilters []bson.M
	findOpts    []*options.FindOptions
}

func newFakeCollection(t *testing.T, uniqueKeys ...string) *fakeCollection {
	t.Helper()
	return &fakeCollection{t: t, uniqueKeys: uniqueKeys}
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return mongo.NewSingleResultFromDocument(bson.M{}, f.findErr, nil)
	}
	for _, doc := range f.docs {
		if matches(doc, filter.(bson.M)) {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.M{}, mongo.ErrNoDocuments, nil)
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	filterDoc := filter.(bson.M)
	f.findFilters = append(f.findFilters, filterDoc)
	f.findOpts = append(f.findOpts, opts...)
	if f.findErr != nil {
		return nil, f.findErr
	}

	matched := make([]bson.M, 0)
	for _, doc := range f.docs {
		if matches(doc, filterDoc) {
			matched = append(matched, doc)
		}
	}

	for _, opt := range opts {
		if opt == nil || opt.Sort == nil {
			continue
		}
		sortDoc := opt.Sort.(bson.D)
		key, dir := sortDoc[0].Key, sortDoc[0].Value.(int)
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i][key], matched[j][key])
			if dir < 0 {
				return c > 0
			}
			return c < 0
		})
	}

	out := make([]interface{}, 0, len(matched))
	for _, doc := range matched {
		out = append(out, doc)
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func (f *fakeCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	doc := marshalDoc(f.t, document)
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	if err := f.checkUnique(doc); err != nil {
		return nil, err
	}
	f.docs = append(f.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (f *fakeCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, f.updateErr
	}

	filterDoc := filter.(bson.M)
	updateDoc := update.(bson.M)
	for _, doc := range f.docs {
		if matches(doc, filterDoc) {
			if set, ok := updateDoc["$set"].(bson.M); ok {
				for k, v := range set {
					doc[k] = normalize(v)
				}
			}
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}

	upsert := false
	for _, opt := range opts {
		if opt != nil && opt.Upsert != nil && *opt.Upsert {
			upsert = true
		}
	}
	if !upsert {
		return &mongo.UpdateResult{}, nil
	}

	doc := bson.M{"_id": primitive.NewObjectID()}
	for k, v := range filterDoc {
		if _, isOp := v.(bson.M); !isOp {
			doc[k] = normalize(v)
		}
	}
	for _, clause := range []string{"$setOnInsert", "$set"} {
		if fields, ok := updateDoc[clause].(bson.M); ok {
			for k, v := range fields {
				doc[k] = normalize(v)
			}
		}
	}
	if err := f.checkUnique(doc); err != nil {
		return nil, err
	}
	f.docs = append(f.docs, doc)
	return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: doc["_id"]}, nil
}

func (f *fakeCollection) insertDoc(doc bson.M) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, marshalDoc(f.t, doc))
}

func (f *fakeCollection) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeCollection) checkUnique(doc bson.M) error {
	for _, key := range f.uniqueKeys {
		val, ok := doc[key]
		if !ok {
			continue
		}
		for _, existing := range f.docs {
			if equal(existing[key], val) {
				return mongo.WriteException{WriteErrors: []mongo.WriteError{{
					Code:    11000,
					Message: fmt.Sprintf("E11000 duplicate key error dup key: { %s: %v }", key, val),
				}}}
			}
		}
	}
	return nil
}

func matches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		got, present := doc[key]
		cond, isOp := want.(bson.M)
		if !isOp {
			if !present || !equal(got, want) {
				return false
			}
			continue
		}
		for op, arg := range cond {
			switch op {
			case "$in":
				found := false
				for _, candidate := range asSlice(arg) {
					if equal(got, candidate) {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			case "$gte":
				if !present || compare(got, arg) < 0 {
					return false
				}
			case "$lte":
				if !present || compare(got, arg) > 0 {
					return false
				}
			default:
				panic("fakeCollection: unsupported operator " + op)
			}
		}
	}
	return true
}

func asSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []primitive.ObjectID:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	case []interface{}:
		return s
	case bson.A:
		return s
	}
	panic(fmt.Sprintf("fakeCollection: unsupported $in argument %T", v))
}

func normalize(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return primitive.NewDateTimeFromTime(t)
	}
	return v
}

func equal(a, b interface{}) bool {
	return normalize(a) == normalize(b)
}

func compare(a, b interface{}) int {
	switch av := normalize(a).(type) {
	case primitive.DateTime:
		bv := normalize(b).(primitive.DateTime)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("fakeCollection: cannot compare %T", a))
}

func marshalDoc(t *testing.T, document interface{}) bson.M {
	t.Helper()

	raw, err := bson.Marshal(document)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	return out
}
