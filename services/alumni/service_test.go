package alumni

import (
	"context"
	"testing"

	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/lib/testutil"
	"alumnisync-backend/services/alumni/db"

	"github.com/stretchr/testify/require"
)

func setupService(t testing.TB) (Service, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "alumni",
		DbSchema: db.Schema,
	})
	return NewService(res.DB), cleanup
}

func TestReconcileIdempotent(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	batch := []linkedin.Profile{
		{
			FullName:   "Jean Dupont",
			ProfileURL: "https://www.linkedin.com/in/jean-dupont?ref=abc",
			DegreeText: "Master Ingénierie du Web",
			GradYear:   2021,
		},
		{
			FullName:   "Léa Martin",
			ProfileURL: "https://www.linkedin.com/in/lea-martin",
			DegreeText: "Bachelor Développeur Web",
		},
	}

	first, err := service.Reconcile(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, first.SuccessCount)
	require.Equal(t, 0, first.ErrorCount)

	second, err := service.Reconcile(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, second.SuccessCount)

	progress, err := service.Progress(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), progress.Total)

	got, err := service.Get(ctx, "https://www.linkedin.com/in/jean-dupont")
	require.NoError(t, err)
	require.Equal(t, "Jean", got.FirstName)
	require.Equal(t, "Dupont", got.LastName)
	require.Equal(t, "https://www.linkedin.com/in/jean-dupont/", got.LinkedinUrl)
	require.Equal(t, int64(2021), got.GradYear.Int64)
}

func TestReconcilePartialFailure(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	batch := []linkedin.Profile{
		{FullName: "Jean Dupont", ProfileURL: "https://www.linkedin.com/in/jean-dupont"},
		// an empty url has no identity, the store rejects it
		{FullName: "Sans Profil", ProfileURL: ""},
		{FullName: "Léa Martin", ProfileURL: "https://www.linkedin.com/in/lea-martin"},
	}

	result, err := service.Reconcile(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)
	require.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Logs, 1)

	// the records around the failure still landed
	_, err = service.Get(ctx, "https://www.linkedin.com/in/jean-dupont")
	require.NoError(t, err)
	_, err = service.Get(ctx, "https://www.linkedin.com/in/lea-martin")
	require.NoError(t, err)
}

func TestReconcileKeepsKnownFields(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	rich := []linkedin.Profile{{
		FullName:        "Jean Dupont",
		ProfileURL:      "https://www.linkedin.com/in/jean-dupont",
		AvatarURL:       "https://media.licdn.com/jean.jpg",
		DegreeText:      "Master Ingénierie du Web",
		CurrentCompany:  "TechCorp",
		CurrentJobTitle: "Développeur Senior",
		GradYear:        2021,
	}}
	_, err := service.Reconcile(ctx, rich)
	require.NoError(t, err)

	// a later, sparser observation of the same person
	sparse := []linkedin.Profile{{
		FullName:   "Jean Dupont",
		ProfileURL: "https://www.linkedin.com/in/jean-dupont/",
	}}
	_, err = service.Reconcile(ctx, sparse)
	require.NoError(t, err)

	got, err := service.Get(ctx, "https://www.linkedin.com/in/jean-dupont")
	require.NoError(t, err)
	require.Equal(t, "https://media.licdn.com/jean.jpg", got.AvatarUrl.String)
	require.Equal(t, "Master Ingénierie du Web", got.Degree.String)
	require.Equal(t, "TechCorp", got.CurrentCompany.String)
	require.Equal(t, "Développeur Senior", got.CurrentJobTitle.String)
	require.Equal(t, int64(2021), got.GradYear.Int64)
}

func TestProgressIgnoresPendingMarkers(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.Reconcile(ctx, []linkedin.Profile{
		{FullName: "A B", ProfileURL: "https://www.linkedin.com/in/a", DegreeText: "Master"},
		{FullName: "C D", ProfileURL: "https://www.linkedin.com/in/c", DegreeText: DegreePending},
		{FullName: "E F", ProfileURL: "https://www.linkedin.com/in/e", DegreeText: "Non spécifié"},
		{FullName: "G H", ProfileURL: "https://www.linkedin.com/in/g"},
		{FullName: "I J", ProfileURL: "https://www.linkedin.com/in/i", DegreeText: linkedin.DegreeNotFound},
	})
	require.NoError(t, err)

	progress, err := service.Progress(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), progress.Total)
	// a visited profile with no program found still counts as processed
	require.Equal(t, int64(2), progress.Processed)
	require.InDelta(t, 40.0, progress.Percentage, 0.01)
}

func TestNeedingEnrichment(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.Reconcile(ctx, []linkedin.Profile{
		{
			FullName:        "Jean Dupont",
			ProfileURL:      "https://www.linkedin.com/in/jean-dupont",
			CurrentCompany:  "TechCorp",
			CurrentJobTitle: "Développeur Senior",
		},
		{FullName: "Léa Martin", ProfileURL: "https://www.linkedin.com/in/lea-martin"},
	})
	require.NoError(t, err)

	urls, err := service.NeedingEnrichment(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"https://www.linkedin.com/in/lea-martin/"}, urls)
}
