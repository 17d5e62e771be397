package facade

import (
	"net/url"
	"testing"

	"blizzard-api/internal/common/errors"
	"blizzard-api/internal/region"
	"blizzard-api/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var achievementPattern = registry.ResolvedPattern{
	MethodName:     "get_achievement",
	PathTemplate:   "/data/wow/achievement/{achievement_id}",
	RequiredParams: []string{"region", "locale", "achievement_id"},
	PathParams:     []string{"achievement_id"},
	Namespace:      region.NamespaceStatic,
	Auth:           registry.AuthClient,
}

var searchPattern = registry.ResolvedPattern{
	MethodName:     "search_decor",
	PathTemplate:   "/data/wow/search/decor",
	RequiredParams: []string{"region", "locale"},
	AcceptsExtra:   true,
	Namespace:      region.NamespaceStatic,
	Auth:           registry.AuthClient,
}

var usDefaults = Defaults{Region: region.US, Locale: "en_US"}

func TestPrepare_ValidationOrder(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		wantType errors.ErrorType
	}{
		{"missing wins over bad region", Params{"region": "xx"}, errors.ErrTypeMissingParameter},
		{"empty string counts as missing", Params{"achievement_id": ""}, errors.ErrTypeMissingParameter},
		{"nil counts as missing", Params{"achievement_id": nil}, errors.ErrTypeMissingParameter},
		{"region before locale", Params{"achievement_id": 6, "region": "xx", "locale": "zz_ZZ"}, errors.ErrTypeInvalidRegion},
		{"locale not served by region", Params{"achievement_id": 6, "region": "kr", "locale": "en_US"}, errors.ErrTypeInvalidLocale},
		{"unexpected key", Params{"achievement_id": 6, "orderby": "id"}, errors.ErrTypeValidation},
		{"bad classic flag", Params{"achievement_id": 6, "is_classic": "maybe"}, errors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(achievementPattern, usDefaults, tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.GetType(err))
		})
	}
}

func TestPrepare_MissingParameterListsRequired(t *testing.T) {
	_, err := Prepare(achievementPattern, usDefaults, Params{})

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "achievement_id", appErr.Field)
	assert.Equal(t, []string{"region", "locale", "achievement_id"}, appErr.RequiredParams)
}

func TestPrepare_InvalidRegionListsCodes(t *testing.T) {
	_, err := Prepare(achievementPattern, usDefaults, Params{"achievement_id": 6, "region": "moon"})

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"us", "eu", "kr", "tw", "cn"}, appErr.ValidValues)
}

func TestPrepare_Defaults(t *testing.T) {
	rc, err := Prepare(achievementPattern, usDefaults, Params{"achievement_id": 6})
	require.NoError(t, err)
	assert.Equal(t, region.US, rc.Region)
	assert.Equal(t, "en_US", rc.Locale)
	assert.Equal(t, "6", rc.Values["achievement_id"])

	// The client locale is not served in eu, so the region default applies.
	rc, err = Prepare(achievementPattern, usDefaults, Params{"achievement_id": 6, "region": "EU"})
	require.NoError(t, err)
	assert.Equal(t, region.EU, rc.Region)
	assert.Equal(t, "en_GB", rc.Locale)

	rc, err = Prepare(achievementPattern, usDefaults, Params{"achievement_id": 6, "region": region.EU, "locale": "de_DE", "is_classic": true})
	require.NoError(t, err)
	assert.Equal(t, "de_DE", rc.Locale)
	assert.True(t, rc.Classic)
}

func TestPrepare_ExtraKeys(t *testing.T) {
	rc, err := Prepare(searchPattern, usDefaults, Params{
		"name.en_US": "wall",
		"_page":      2,
		"orderby":    []string{"id", "name"},
	})
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"name.en_US": {"wall"},
		"_page":      {"2"},
		"orderby":    {"id", "name"},
	}, rc.Extra)
}

func TestPrepare_UserTokenEndpoints(t *testing.T) {
	pattern := registry.ResolvedPattern{
		MethodName:     "get_account_profile_summary",
		PathTemplate:   "/profile/user/wow",
		RequiredParams: []string{"region", "locale"},
		Namespace:      region.NamespaceProfile,
		Auth:           registry.AuthUser,
	}

	_, err := Prepare(pattern, usDefaults, Params{})
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTypeMissingParameter, appErr.Type)
	assert.Equal(t, "access_token", appErr.Field)

	rc, err := Prepare(pattern, usDefaults, Params{"access_token": "user-abc"})
	require.NoError(t, err)
	assert.Equal(t, "user-abc", rc.AccessToken)
	assert.NotContains(t, rc.Values, "access_token")
}

func TestBuildRequest(t *testing.T) {
	rc, err := Prepare(achievementPattern, usDefaults, Params{"achievement_id": 6})
	require.NoError(t, err)

	req := BuildRequest(rc, achievementPattern, nil)
	assert.Equal(t, "https://us.api.blizzard.com/data/wow/achievement/6", req.URL)
	assert.Equal(t, "static-us", req.Query.Get("namespace"))
	assert.Equal(t, "en_US", req.Query.Get("locale"))
	assert.Equal(t, region.US, req.Region)
	assert.True(t, req.RequiresAuth)
	assert.Equal(t, "get_achievement", req.Operation)
}

func TestBuildRequest_EscapesPathAndHonoursClassic(t *testing.T) {
	pattern := registry.ResolvedPattern{
		MethodName:     "get_character_profile_summary",
		PathTemplate:   "/profile/wow/character/{realm_slug}/{character_name}",
		RequiredParams: []string{"region", "locale", "realm_slug", "character_name"},
		Namespace:      region.NamespaceStatic,
	}
	rc, err := Prepare(pattern, usDefaults, Params{
		"realm_slug":     "argent-dawn",
		"character_name": "jürgen/x",
		"region":         "eu",
		"is_classic":     "true",
	})
	require.NoError(t, err)

	req := BuildRequest(rc, pattern, region.Hosts{region.EU: "http://localhost:8080/"})
	assert.Equal(t, "http://localhost:8080/profile/wow/character/argent-dawn/j%C3%BCrgen%2Fx", req.URL)
	assert.Equal(t, "static-classic-eu", req.Query.Get("namespace"))
}

func TestBuildRequest_QueryIdentifiersAndNoNamespace(t *testing.T) {
	pattern := registry.ResolvedPattern{
		MethodName:     "get_deck",
		PathTemplate:   "/hearthstone/deck",
		RequiredParams: []string{"region", "locale", "code"},
		QueryParams:    []string{"code"},
		Namespace:      region.NamespaceNone,
	}
	rc, err := Prepare(pattern, usDefaults, Params{"code": "AAECAQcG"})
	require.NoError(t, err)

	req := BuildRequest(rc, pattern, nil)
	assert.Equal(t, "https://us.api.blizzard.com/hearthstone/deck", req.URL)
	assert.Equal(t, "AAECAQcG", req.Query.Get("code"))
	_, hasNamespace := req.Query["namespace"]
	assert.False(t, hasNamespace)
}
