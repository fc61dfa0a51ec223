package leakix

// Plugin identifies a LeakIX scan plugin. The list of plugins can be found
// on https://leakix.net/plugins; some are only available to paid users.
type Plugin string

const (
	ApacheStatusHttpPlugin     Plugin = "ApacheStatusHttpPlugin"
	BitbucketPlugin            Plugin = "BitbucketPlugin"
	CheckMkPlugin              Plugin = "CheckMkPlugin"
	ConfigJsonHttp             Plugin = "ConfigJsonHttp"
	ConfluenceVersionIssue     Plugin = "ConfluenceVersionIssue"
	Consul                     Plugin = "Consul"
	CouchDbOpenPlugin          Plugin = "CouchDbOpenPlugin"
	DeadMon                    Plugin = "DeadMon"
	DockerRegistryHttpPlugin   Plugin = "DockerRegistryHttpPlugin"
	DotDsStoreOpenPlugin       Plugin = "DotDsStoreOpenPlugin"
	DotEnvConfigPlugin         Plugin = "DotEnvConfigPlugin"
	ElasticSearchOpenPlugin    Plugin = "ElasticSearchOpenPlugin"
	ExchangeVersion            Plugin = "ExchangeVersion"
	FortiOSPlugin              Plugin = "FortiOSPlugin"
	GitConfigHttpPlugin        Plugin = "GitConfigHttpPlugin"
	GrafanaOpenPlugin          Plugin = "GrafanaOpenPlugin"
	HiSiliconDVR               Plugin = "HiSiliconDVR"
	HttpNTLM                   Plugin = "HttpNTLM"
	JenkinsOpenPlugin          Plugin = "JenkinsOpenPlugin"
	JiraPlugin                 Plugin = "JiraPlugin"
	KafkaOpenPlugin            Plugin = "KafkaOpenPlugin"
	LaravelTelescopeHttpPlugin Plugin = "LaravelTelescopeHttpPlugin"
	Log4JOpportunistic         Plugin = "Log4JOpportunistic"
	MetabaseHttpPlugin         Plugin = "MetabaseHttpPlugin"
	MongoOpenPlugin            Plugin = "MongoOpenPlugin"
	MysqlOpenPlugin            Plugin = "MysqlOpenPlugin"
	PaloAltoPlugin             Plugin = "PaloAltoPlugin"
	PhpInfoHttpPlugin          Plugin = "PhpInfoHttpPlugin"
	PhpStdinPlugin             Plugin = "PhpStdinPlugin"
	ProxyOpenPlugin            Plugin = "ProxyOpenPlugin"
	QnapVersion                Plugin = "QnapVersion"
	RedisOpenPlugin            Plugin = "RedisOpenPlugin"
	SmbPlugin                  Plugin = "SmbPlugin"
	SonarQubePlugin            Plugin = "SonarQubePlugin"
	SonicWallSMAPlugin         Plugin = "SonicWallSMAPlugin"
	SophosPlugin               Plugin = "SophosPlugin"
	SymfonyProfilerPlugin      Plugin = "SymfonyProfilerPlugin"
	SymfonyVerbosePlugin       Plugin = "SymfonyVerbosePlugin"
	TraversalHttpPlugin        Plugin = "TraversalHttpPlugin"
	Veeaml9                    Plugin = "veeaml9"
	WpUserEnumHttp             Plugin = "WpUserEnumHttp"
	YiiDebugPlugin             Plugin = "YiiDebugPlugin"
	ZimbraPlugin               Plugin = "ZimbraPlugin"
	ZookeeperOpenPlugin        Plugin = "ZookeeperOpenPlugin"
	ZyxelVersion               Plugin = "ZyxelVersion"
)

var knownPlugins = []Plugin{
	ApacheStatusHttpPlugin, BitbucketPlugin, CheckMkPlugin, ConfigJsonHttp,
	ConfluenceVersionIssue, Consul, CouchDbOpenPlugin, DeadMon,
	DockerRegistryHttpPlugin, DotDsStoreOpenPlugin, DotEnvConfigPlugin,
	ElasticSearchOpenPlugin, ExchangeVersion, FortiOSPlugin,
	GitConfigHttpPlugin, GrafanaOpenPlugin, HiSiliconDVR, HttpNTLM,
	JenkinsOpenPlugin, JiraPlugin, KafkaOpenPlugin, LaravelTelescopeHttpPlugin,
	Log4JOpportunistic, MetabaseHttpPlugin, MongoOpenPlugin, MysqlOpenPlugin,
	PaloAltoPlugin, PhpInfoHttpPlugin, PhpStdinPlugin, ProxyOpenPlugin,
	QnapVersion, RedisOpenPlugin, SmbPlugin, SonarQubePlugin,
	SonicWallSMAPlugin, SophosPlugin, SymfonyProfilerPlugin,
	SymfonyVerbosePlugin, TraversalHttpPlugin, Veeaml9, WpUserEnumHttp,
	YiiDebugPlugin, ZimbraPlugin, ZookeeperOpenPlugin, ZyxelVersion,
}

var pluginSet = func() map[Plugin]struct{} {
	m := make(map[Plugin]struct{}, len(knownPlugins))
	for _, p := range knownPlugins {
		m[p] = struct{}{}
	}
	return m
}()

// Plugins returns the plugin catalog in declaration order.
func Plugins() []Plugin {
	out := make([]Plugin, len(knownPlugins))
	copy(out, knownPlugins)
	return out
}

// Known reports whether p is part of the catalog.
func (p Plugin) Known() bool {
	_, ok := pluginSet[p]
	return ok
}

func (p Plugin) String() string {
	return string(p)
}

// PluginResult describes one plugin returned by the plugin listing endpoint.
type PluginResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
