package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyDashAPIBaseURL       string = "DASH_API_BASE_URL"
	EnvKeyDashHttpHostPort     string = "DASH_HTTP_HOST_PORT"
	EnvKeyDashAPIRate          string = "DASH_API_RATE"
	EnvKeyDashAPIBurst         string = "DASH_API_BURST"
	EnvKeyDashMaxDetailFetches string = "DASH_MAX_DETAIL_FETCHES"
	EnvKeyDashRequestTimeout   string = "DASH_REQUEST_TIMEOUT"
	EnvKeyFakeAPIHostPort      string = "FAKEAPI_HOST_PORT"
	EnvKeyFakeAPIDBType        string = "FAKEAPI_DB_TYPE"
	EnvKeyFakeAPIDbPath        string = "FAKEAPI_DB_PATH"
	EnvKeyFakeAPISeedPlatforms string = "FAKEAPI_SEED_PLATFORMS"
	EnvKeyFakeAPIUserEmail     string = "FAKEAPI_USER_EMAIL"
	EnvKeyFakeAPIUserPassword  string = "FAKEAPI_USER_PASSWORD"

	DefaultAPIBaseURL string = "https://devtest.a2g.io"

	LoggerNameGateway       string = "gateway"
	LoggerNameSynchronizer  string = "synchronizer"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameFakeAPI       string = "fake_api"
	LoggerNameDB            string = "db"
	LoggerFieldCategory     string = "category"

	LoggerCategorySession    string = "session"
	LoggerCategoryPlatforms  string = "platforms"
	LoggerCategoryDetail     string = "detail"
	LoggerCategoryRecords    string = "records"
	LoggerCategoryNavigation string = "navigation"
	LoggerCategoryHTTP       string = "http"
)
