package config

import (
	"strconv"
	"time"
)

// CurrentSettingsVersion is the settings_version written by Load after the
// migration chain has run.
const CurrentSettingsVersion = 5

const (
	SourceBook    = "book"
	SourceEdition = "edition"
)

const (
	GroupByAuthor       = "author"
	GroupBySeries       = "series"
	GroupByAuthorSeries = "author-series"

	AuthorFormatFirstLast = "firstLast"
	AuthorFormatLastFirst = "lastFirst"

	NoAuthorFallbackFolder   = "useFallbackFolder"
	NoAuthorFallbackPriority = "useFallbackPriority"

	MultipleAuthorsUseFirst    = "useFirst"
	MultipleAuthorsCollections = "useCollectionsFolder"

	QuotesBlockquote = "blockquote"
	QuotesCallout    = "callout"
)

const DefaultFilenameTemplate = "${title} (${year})"

type Settings struct {
	SettingsVersion           int               `koanf:"settings_version"`
	VaultPath                 string            `koanf:"vault_path" validate:"required"`
	TargetFolder              string            `koanf:"target_folder"`
	FilenameTemplate          string            `koanf:"filename_template" validate:"required"`
	PreserveCustomFrontmatter bool              `koanf:"preserve_custom_frontmatter"`
	LastSyncTimestamp         string            `koanf:"last_sync_timestamp"`
	StatusFilter              []int             `koanf:"status_filter" validate:"dive,min=1"`
	StatusMapping             map[string]string `koanf:"status_mapping"`
	DebugLimit                int               `koanf:"debug_limit" validate:"gte=0"`

	Fields      FieldsSettings `koanf:"fields"`
	DataSources DataSources    `koanf:"data_sources"`
	Grouping    Grouping       `koanf:"grouping"`

	Hardcover Hardcover `koanf:"hardcover"`
	State     State     `koanf:"state"`
	Server    Server    `koanf:"server"`
	Log       Log       `koanf:"log"`
}

type FieldConfig struct {
	Enabled      bool   `koanf:"enabled"`
	PropertyName string `koanf:"property_name" validate:"required"`
	Wikilinks    bool   `koanf:"wikilinks"`
	// Format only applies to quotes.
	Format string `koanf:"format" validate:"omitempty,oneof=blockquote callout"`
}

type ActivityDateFieldConfig struct {
	Enabled           bool   `koanf:"enabled"`
	PropertyName      string `koanf:"property_name" validate:"required"`
	StartPropertyName string `koanf:"start_property_name" validate:"required"`
	EndPropertyName   string `koanf:"end_property_name" validate:"required"`
}

type FieldsSettings struct {
	Title        FieldConfig             `koanf:"title"`
	Description  FieldConfig             `koanf:"description"`
	Cover        FieldConfig             `koanf:"cover"`
	ReleaseDate  FieldConfig             `koanf:"release_date"`
	Series       FieldConfig             `koanf:"series"`
	Authors      FieldConfig             `koanf:"authors"`
	Contributors FieldConfig             `koanf:"contributors"`
	Publisher    FieldConfig             `koanf:"publisher"`
	ISBN10       FieldConfig             `koanf:"isbn10"`
	ISBN13       FieldConfig             `koanf:"isbn13"`
	URL          FieldConfig             `koanf:"url"`
	Genres       FieldConfig             `koanf:"genres"`
	Lists        FieldConfig             `koanf:"lists"`
	Status       FieldConfig             `koanf:"status"`
	Rating       FieldConfig             `koanf:"rating"`
	Review       FieldConfig             `koanf:"review"`
	Quotes       FieldConfig             `koanf:"quotes"`
	FirstRead    ActivityDateFieldConfig `koanf:"first_read"`
	LastRead     ActivityDateFieldConfig `koanf:"last_read"`
	TotalReads   FieldConfig             `koanf:"total_reads"`
	ReadYears    FieldConfig             `koanf:"read_years"`
}

type DataSources struct {
	Title        string `koanf:"title" validate:"oneof=book edition"`
	Cover        string `koanf:"cover" validate:"oneof=book edition"`
	ReleaseDate  string `koanf:"release_date" validate:"oneof=book edition"`
	Authors      string `koanf:"authors" validate:"oneof=book edition"`
	Contributors string `koanf:"contributors" validate:"oneof=book edition"`
}

type Grouping struct {
	Enabled                 bool   `koanf:"enabled"`
	GroupBy                 string `koanf:"group_by" validate:"oneof=author series author-series"`
	AuthorFormat            string `koanf:"author_format" validate:"oneof=firstLast lastFirst"`
	NoAuthorBehavior        string `koanf:"no_author_behavior" validate:"oneof=useFallbackFolder useFallbackPriority"`
	FallbackFolderName      string `koanf:"fallback_folder_name"`
	MultipleAuthorsBehavior string `koanf:"multiple_authors_behavior" validate:"oneof=useFirst useCollectionsFolder"`
	CollectionsFolderName   string `koanf:"collections_folder_name"`
	AutoOrganize            bool   `koanf:"auto_organize"`
}

type Hardcover struct {
	APIKey   string        `koanf:"api_key"`
	Endpoint string        `koanf:"endpoint" validate:"required,url"`
	PageSize int           `koanf:"page_size" validate:"min=1,max=500"`
	Timeout  time.Duration `koanf:"timeout"`
}

type State struct {
	Driver string `koanf:"driver" validate:"oneof=file postgres"`
	Path   string `koanf:"path"`
	DSN    string `koanf:"dsn" validate:"required_if=Driver postgres"`
}

type Server struct {
	Addr           string        `koanf:"addr"`
	InternalSecret string        `koanf:"internal_secret"`
	SyncInterval   time.Duration `koanf:"sync_interval"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

func defaultStatusMapping() map[string]string {
	return map[string]string{
		"1": "Want to Read",
		"2": "Currently Reading",
		"3": "Read",
		"4": "Paused",
		"5": "Did Not Finish",
		"6": "Ignored",
	}
}

// Default returns the settings used when no file or environment overrides a key.
func Default() Settings {
	return Settings{
		SettingsVersion:           CurrentSettingsVersion,
		VaultPath:                 ".",
		TargetFolder:              "HardcoverBooks",
		FilenameTemplate:          DefaultFilenameTemplate,
		PreserveCustomFrontmatter: true,
		StatusFilter:              []int{1, 2, 3, 5},
		StatusMapping:             defaultStatusMapping(),
		Fields: FieldsSettings{
			Title:        FieldConfig{Enabled: true, PropertyName: "title"},
			Description:  FieldConfig{Enabled: true, PropertyName: "description"},
			Cover:        FieldConfig{Enabled: true, PropertyName: "cover"},
			ReleaseDate:  FieldConfig{Enabled: true, PropertyName: "releaseDate"},
			Series:       FieldConfig{Enabled: true, PropertyName: "seriesName"},
			Authors:      FieldConfig{Enabled: true, PropertyName: "authors"},
			Contributors: FieldConfig{Enabled: true, PropertyName: "contributors"},
			Publisher:    FieldConfig{Enabled: true, PropertyName: "publisher"},
			ISBN10:       FieldConfig{Enabled: false, PropertyName: "isbn10"},
			ISBN13:       FieldConfig{Enabled: false, PropertyName: "isbn13"},
			URL:          FieldConfig{Enabled: true, PropertyName: "url"},
			Genres:       FieldConfig{Enabled: true, PropertyName: "genres"},
			Lists:        FieldConfig{Enabled: false, PropertyName: "lists"},
			Status:       FieldConfig{Enabled: true, PropertyName: "status"},
			Rating:       FieldConfig{Enabled: true, PropertyName: "rating"},
			Review:       FieldConfig{Enabled: true, PropertyName: "review"},
			Quotes:       FieldConfig{Enabled: false, PropertyName: "quotes", Format: QuotesBlockquote},
			FirstRead: ActivityDateFieldConfig{
				Enabled:           true,
				PropertyName:      "firstRead",
				StartPropertyName: "firstReadStart",
				EndPropertyName:   "firstReadEnd",
			},
			LastRead: ActivityDateFieldConfig{
				Enabled:           true,
				PropertyName:      "lastRead",
				StartPropertyName: "lastReadStart",
				EndPropertyName:   "lastReadEnd",
			},
			TotalReads: FieldConfig{Enabled: true, PropertyName: "totalReads"},
			ReadYears:  FieldConfig{Enabled: false, PropertyName: "readYears"},
		},
		DataSources: DataSources{
			Title:        SourceEdition,
			Cover:        SourceEdition,
			ReleaseDate:  SourceEdition,
			Authors:      SourceEdition,
			Contributors: SourceEdition,
		},
		Grouping: Grouping{
			Enabled:                 false,
			GroupBy:                 GroupByAuthor,
			AuthorFormat:            AuthorFormatFirstLast,
			NoAuthorBehavior:        NoAuthorFallbackPriority,
			FallbackFolderName:      "Various",
			MultipleAuthorsBehavior: MultipleAuthorsUseFirst,
			CollectionsFolderName:   "Collections",
			AutoOrganize:            true,
		},
		Hardcover: Hardcover{
			Endpoint: "https://api.hardcover.app/v1/graphql",
			PageSize: 100,
			Timeout:  30 * time.Second,
		},
		State: State{
			Driver: "file",
			Path:   ".hcsync/state.yaml",
		},
		Server: Server{
			Addr: ":8080",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// StatusLabel maps a remote status code through the configured table.
func (s *Settings) StatusLabel(code int) (string, bool) {
	label, ok := s.StatusMapping[strconv.Itoa(code)]
	return label, ok
}
