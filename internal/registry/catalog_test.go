package registry_test

import (
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/mocks"
	"github.com/feral-file/ff-sovereignty/internal/registry"
	"github.com/feral-file/ff-sovereignty/internal/store"
)

func passthroughJSON(mockJSON *mocks.MockJSON) {
	mockJSON.
		EXPECT().
		Unmarshal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(data []byte, v interface{}) error {
			return json.Unmarshal(data, v)
		})
}

func TestCatalogLoader_Load(t *testing.T) {
	tests := []struct {
		name         string
		setupMocks   func(*mocks.MockFileSystem, *mocks.MockJSON)
		expectedErr  string // Error message to assert, empty means no error expected
		validateFunc func(t *testing.T, catalog registry.TerritoryCatalog)
	}{
		{
			name: "successful load with valid JSON",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("territories.json").
					Return([]byte(`{
					"version": 1,
					"territories": [
						{"id": "FR", "name": "France", "base_price": 100},
						{"id": " DE ", "name": " Germany ", "base_price": 120},
						{"id": "IS", "name": "Iceland", "base_price": 0}
					]
				}`), nil)
				passthroughJSON(mockJSON)
			},
			validateFunc: func(t *testing.T, catalog registry.TerritoryCatalog) {
				assert.Equal(t, 3, catalog.Len())

				de := catalog.Lookup("de")
				require.NotNil(t, de)
				assert.Equal(t, "DE", de.ID)
				assert.Equal(t, "Germany", de.Name)
				assert.Equal(t, int64(120), de.BasePrice)

				assert.NotNil(t, catalog.Lookup("IS"))
				assert.Nil(t, catalog.Lookup("XX"))
			},
		},
		{
			name: "successful load with empty catalog",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("territories.json").
					Return([]byte(`{"version": 1, "territories": []}`), nil)
				passthroughJSON(mockJSON)
			},
			validateFunc: func(t *testing.T, catalog registry.TerritoryCatalog) {
				assert.Equal(t, 0, catalog.Len())
				assert.Nil(t, catalog.Batches(10))
			},
		},
		{
			name: "file read error",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("territories.json").
					Return(nil, assert.AnError)
			},
			expectedErr: "failed to read catalog file",
		},
		{
			name: "JSON parse error",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				catalogJSON := []byte(`invalid json`)
				mockFS.
					EXPECT().
					ReadFile("territories.json").
					Return(catalogJSON, nil)
				mockJSON.
					EXPECT().
					Unmarshal(catalogJSON, gomock.Any()).
					Return(assert.AnError)
			},
			expectedErr: "failed to parse catalog JSON",
		},
		{
			name: "duplicate ids differing in case",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("territories.json").
					Return([]byte(`{"territories": [{"id": "FR", "base_price": 1}, {"id": "fr", "base_price": 2}]}`), nil)
				passthroughJSON(mockJSON)
			},
			expectedErr: "duplicate id",
		},
		{
			name: "missing id and negative price",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("territories.json").
					Return([]byte(`{"territories": [{"id": "", "base_price": 1}, {"id": "ES", "base_price": -5}]}`), nil)
				passthroughJSON(mockJSON)
			},
			expectedErr: "base_price must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockFS := mocks.NewMockFileSystem(ctrl)
			mockJSON := mocks.NewMockJSON(ctrl)

			if tt.setupMocks != nil {
				tt.setupMocks(mockFS, mockJSON)
			}

			loader := registry.NewCatalogLoader(mockFS, mockJSON)
			catalog, err := loader.Load("territories.json")

			if tt.expectedErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.Nil(t, catalog)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, catalog)
				if tt.validateFunc != nil {
					tt.validateFunc(t, catalog)
				}
			}
		})
	}
}

func TestTerritoryCatalog_Batches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFS := mocks.NewMockFileSystem(ctrl)
	mockJSON := mocks.NewMockJSON(ctrl)

	mockFS.
		EXPECT().
		ReadFile("territories.json").
		Return([]byte(`{"territories": [
			{"id": "A", "name": "Alpha", "base_price": 1},
			{"id": "B", "name": "Beta", "base_price": 2},
			{"id": "C", "name": "Gamma", "base_price": 3},
			{"id": "D", "name": "Delta", "base_price": 4},
			{"id": "E", "name": "Epsilon", "base_price": 5}
		]}`), nil)
	passthroughJSON(mockJSON)

	catalog, err := registry.NewCatalogLoader(mockFS, mockJSON).Load("territories.json")
	require.NoError(t, err)

	batches := catalog.Batches(2)
	require.Len(t, batches, 3)
	assert.Equal(t, []store.SeedTerritoryInput{
		{ID: "A", Name: "Alpha", BasePrice: 1},
		{ID: "B", Name: "Beta", BasePrice: 2},
	}, batches[0])
	assert.Len(t, batches[1], 2)
	assert.Equal(t, []store.SeedTerritoryInput{{ID: "E", Name: "Epsilon", BasePrice: 5}}, batches[2])

	// A non-positive size yields a single batch
	assert.Len(t, catalog.Batches(0), 1)
}
