package service

import (
	"context"
	"errors"
	"testing"
	"time"

	cacheMocks "go-gin-happenings/internal/cache/mocks"
	"go-gin-happenings/internal/database"
	"go-gin-happenings/internal/model"
	"go-gin-happenings/internal/notify"
	"go-gin-happenings/internal/repository"
	"go-gin-happenings/internal/testutil"
	apperrors "go-gin-happenings/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHappeningLifecycle_Integration(t *testing.T) {
	pool := getTestDB(t)
	ctx := context.Background()

	transactor := database.NewTransactor(pool)
	happeningRepo := repository.NewHappeningRepository(pool)
	factRepo := repository.NewFactRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	seatCounter := cacheMocks.NewMockSeatCounterCache()
	recorder := notify.NewRecorder()

	happenings := NewHappeningService(transactor, happeningRepo, factRepo, seatCounter, nil)
	counter := NewCounterService(transactor, happeningRepo, factRepo, ticketRepo, seatCounter, recorder)

	factID, err := testutil.CreateFact(ctx, pool, "Jazz night")
	require.NoError(t, err)

	// 1. 建立週一的場次，往後 7 天複製到週一與週三
	req := validRequest()
	req.FactID = factID
	req.RepeatFor = intPtr(7)
	req.RepeatIn = []string{"1", "3"}

	parent, err := happenings.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, parent.MaxSeatsForTicket)

	list, err := happenings.ListByFact(ctx, factID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, parent.ID, list[0].ID)

	fact, err := factRepo.FindByID(ctx, factID)
	require.NoError(t, err)
	assert.Equal(t, 3, fact.HappeningsCount)

	// 2. 售票流程寫入 2 + 3 + 5 個座位後重算
	for _, seats := range []int{2, 3, 5} {
		_, err := testutil.CreateTicket(ctx, pool, parent.ID, seats)
		require.NoError(t, err)
	}
	seatCounter.On("Store", mock.Anything, mock.Anything).Return(nil).Once()

	refreshed, err := counter.RefreshSeatsCount(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, 10, refreshed.SeatsCount)
	assert.Equal(t, 3, refreshed.TicketsCount)

	messages := recorder.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, parent.CounterTarget(), messages[0].Target)
	assert.Equal(t, parent.NavTarget(), messages[1].Target)

	// 3. 刪除場次，票券連帶刪除並扣回 fact 計數
	seatCounter.On("Invalidate", mock.Anything, parent.ID).Return(nil).Once()
	require.NoError(t, happenings.Delete(ctx, parent.ID))

	fact, err = factRepo.FindByID(ctx, factID)
	require.NoError(t, err)
	assert.Equal(t, 2, fact.HappeningsCount)

	var tickets int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM tickets WHERE happening_id = $1", parent.ID).Scan(&tickets))
	assert.Zero(t, tickets)
	seatCounter.AssertExpectations(t)
}

func TestHappeningService_Create_unknownFact_Integration(t *testing.T) {
	pool := getTestDB(t)
	ctx := context.Background()

	happenings := NewHappeningService(
		database.NewTransactor(pool),
		repository.NewHappeningRepository(pool),
		repository.NewFactRepository(pool),
		cacheMocks.NewMockSeatCounterCache(),
		nil,
	)

	req := validRequest()
	req.FactID = 424242

	_, err := happenings.Create(ctx, req)
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"must exist"}, ve.Fields["fact"])

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM happenings").Scan(&count))
	assert.Zero(t, count)
}

// failingChildRepository 寫入重複場次時失敗，模擬批次中途的儲存錯誤
type failingChildRepository struct {
	repository.HappeningRepository
	parentStartAt time.Time
	err           error
}

func (r *failingChildRepository) Create(ctx context.Context, tx pgx.Tx, happening *model.Happening) (*model.Happening, error) {
	if !happening.StartAt.Equal(r.parentStartAt) {
		return nil, r.err
	}
	return r.HappeningRepository.Create(ctx, tx, happening)
}

func TestHappeningService_Create_childFailureRollsBack_Integration(t *testing.T) {
	pool := getTestDB(t)
	ctx := context.Background()
	childErr := errors.New("disk full")

	factRepo := repository.NewFactRepository(pool)
	happenings := NewHappeningService(
		database.NewTransactor(pool),
		&failingChildRepository{
			HappeningRepository: repository.NewHappeningRepository(pool),
			parentStartAt:       monday,
			err:                 childErr,
		},
		factRepo,
		cacheMocks.NewMockSeatCounterCache(),
		nil,
	)

	factID, err := testutil.CreateFact(ctx, pool, "Jazz night")
	require.NoError(t, err)

	req := validRequest()
	req.FactID = factID
	req.RepeatFor = intPtr(7)
	req.RepeatIn = []string{"1", "3"}

	created, err := happenings.Create(ctx, req)

	require.Error(t, err)
	assert.Nil(t, created)
	assert.ErrorIs(t, err, childErr)

	// 父場次與 fact 計數都應一併 rollback
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM happenings").Scan(&count))
	assert.Zero(t, count)

	fact, err := factRepo.FindByID(ctx, factID)
	require.NoError(t, err)
	assert.Zero(t, fact.HappeningsCount)
}
