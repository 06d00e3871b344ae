package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const ticketsNS = "helpdesk.tickets"

func newMockTicketRepository(mt *mtest.T) TicketRepository {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	repo, err := NewMongoTicketRepository(context.Background(), mt.DB)
	require.NoError(mt, err)
	mt.ClearEvents()
	return repo
}

func newMockSpecialistRepository(mt *mtest.T) SpecialistRepository {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	repo, err := NewMongoSpecialistRepository(context.Background(), mt.DB)
	require.NoError(mt, err)
	mt.ClearEvents()
	return repo
}

// asDoc converts a raw document into the bson.D the mock responses take.
func asDoc(mt *mtest.T, raw bson.Raw) bson.D {
	var doc bson.D
	require.NoError(mt, bson.Unmarshal(raw, &doc))
	return doc
}

func TestMongoTicketRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create then read back keeps millisecond timestamps", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		created := base.Add(123 * time.Millisecond)
		phone := "+1 555 0100"
		ticket := memTicket("202406010001", created, domain.TicketStatusReceived, nil)
		ticket.RequesterPhone = &phone

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, repo.Create(ctx, ticket))

		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
		sent, err := insert.Command.Lookup("documents").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, sent, 1)
		stored := sent[0].Document()
		assert.Equal(mt, created, stored.Lookup("created_at").Time().UTC())
		assert.Equal(mt, bson.TypeNull, stored.Lookup("resolved_at").Type)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ticketsNS, mtest.FirstBatch, asDoc(mt, stored)))
		got, err := repo.GetByNumber(ctx, "202406010001")
		require.NoError(mt, err)
		assert.Equal(mt, ticket, got)
	})

	mt.Run("duplicate ticket number", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: helpdesk.tickets index: ticket_number_1",
		}))

		err := repo.Create(ctx, memTicket("202406010001", base, domain.TicketStatusReceived, nil))
		assert.ErrorIs(mt, err, ErrDuplicateNumber)
	})

	mt.Run("latest number with prefix", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ticketsNS, mtest.FirstBatch,
			bson.D{{Key: "ticket_number", Value: "202406010007"}}))

		latest, err := repo.LatestNumberWithPrefix(ctx, "20240601")
		require.NoError(mt, err)
		assert.Equal(mt, "202406010007", latest)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "^20240601", find.Command.Lookup("filter", "ticket_number", "$regex").StringValue())
		assert.EqualValues(mt, -1, find.Command.Lookup("sort", "ticket_number").AsInt64())
	})

	mt.Run("empty results", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ticketsNS, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ticketsNS, mtest.FirstBatch),
		)

		latest, err := repo.LatestNumberWithPrefix(ctx, "20240602")
		require.NoError(mt, err)
		assert.Empty(mt, latest)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("patch of unknown ticket", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		resolved := domain.TicketStatusResolved
		err := repo.ApplyPatch(ctx, "missing", domain.TicketPatch{Status: &resolved, UpdatedAt: base})
		assert.ErrorIs(mt, err, ErrNotFound)

		update := mt.GetStartedEvent()
		require.NotNil(mt, update)
		set := update.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u", "$set").Document()
		assert.Equal(mt, "resolved", set.Lookup("status").StringValue())
		_, err = set.LookupErr("priority")
		assert.Error(mt, err)
	})

	mt.Run("list newest first", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		older := toTicketDocument(memTicket("202406010001", base, domain.TicketStatusReceived, nil))
		newer := toTicketDocument(memTicket("202406010002", base.Add(time.Hour), domain.TicketStatusReceived, nil))
		newerRaw, err := bson.Marshal(newer)
		require.NoError(mt, err)
		olderRaw, err := bson.Marshal(older)
		require.NoError(mt, err)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ticketsNS, mtest.FirstBatch,
			asDoc(mt, newerRaw), asDoc(mt, olderRaw)))

		received := domain.TicketStatusReceived
		list, err := repo.List(ctx, TicketFilter{Status: &received, Limit: 2})
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "202406010002", list[0].TicketNumber)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		sort, err := find.Command.Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, sort, 2)
		assert.Equal(mt, "created_at", sort[0].Key())
		assert.Equal(mt, "ticket_number", sort[1].Key())
		assert.EqualValues(mt, 2, find.Command.Lookup("limit").AsInt64())
		assert.Equal(mt, "received", find.Command.Lookup("filter", "status").StringValue())
	})

	mt.Run("count by specialist joins names", func(mt *mtest.T) {
		repo := newMockTicketRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ticketsNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "Will Brown"}, {Key: "count", Value: int64(2)}},
			bson.D{{Key: "_id", Value: "Trey Lake"}, {Key: "count", Value: int64(1)}},
		))

		counts, err := repo.CountBySpecialist(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, map[string]int64{"Will Brown": 2, "Trey Lake": 1}, counts)

		aggregate := mt.GetStartedEvent()
		require.NotNil(mt, aggregate)
		stages, err := aggregate.Command.Lookup("pipeline").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, stages, 4)
		lookup := stages[1].Document().Lookup("$lookup").Document()
		assert.Equal(mt, specialistsCollection, lookup.Lookup("from").StringValue())
		assert.Equal(mt, "assigned_to", lookup.Lookup("localField").StringValue())
		assert.Equal(mt, "id", lookup.Lookup("foreignField").StringValue())
	})
}

func TestMongoSpecialistRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "helpdesk.specialists"

	mt.Run("duplicate name", func(mt *mtest.T) {
		repo := newMockSpecialistRepository(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error index: name_1",
		}))

		err := repo.Create(ctx, &domain.Specialist{ID: "s1", Name: "Will Brown", Active: true})
		assert.ErrorIs(mt, err, ErrDuplicateName)
	})

	mt.Run("list active", func(mt *mtest.T) {
		repo := newMockSpecialistRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "id", Value: "s1"}, {Key: "name", Value: "Will Brown"}, {Key: "role", Value: "IT Specialist"}, {Key: "active", Value: true}},
		))

		active, err := repo.ListActive(ctx, 5)
		require.NoError(mt, err)
		assert.Equal(mt, []domain.Specialist{{ID: "s1", Name: "Will Brown", Role: "IT Specialist", Active: true}}, active)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.True(mt, find.Command.Lookup("filter", "active").Boolean())
		assert.EqualValues(mt, 5, find.Command.Lookup("limit").AsInt64())
	})

	mt.Run("unknown name", func(mt *mtest.T) {
		repo := newMockSpecialistRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByName(ctx, "Nobody")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
