package constants

const (
	CHANNEL_SIZE          = 256 // 每个连接的发送缓冲
	REDIS_TIMEOUT         = 1   // redis timeout (分钟)
	RECENT_MESSAGE_LIMIT  = 50  // 进房回放、聊天页展示的最近消息条数
	MAX_ALIAS_ATTEMPTS    = 10  // 匿名昵称碰撞重试次数
	ALIAS_SUFFIX_RANGE    = 1000
	MOOD_GROUP_TTL_HOURS  = 24
	MESSAGE_MAX_LENGTH    = 100
	ROOM_PREFIX           = "group_"
	GROUP_MESSAGES_PREFIX = "group_messagelist_"
)

// 匿名昵称词表，形如 "Gentle Otter"
var AliasAdjectives = []string{
	"Gentle", "Quiet", "Brave", "Calm", "Kind", "Bright", "Curious", "Hopeful",
	"Silent", "Warm", "Soft", "Steady", "Lucky", "Mellow", "Sunny", "Swift",
	"Cozy", "Patient", "Wandering", "Humble", "Clever", "Dreamy", "Honest", "Tender",
}

var AliasNouns = []string{
	"Otter", "Panda", "Falcon", "Willow", "River", "Sparrow", "Fox", "Koala",
	"Maple", "Comet", "Harbor", "Lantern", "Meadow", "Pebble", "Heron", "Badger",
	"Cloud", "Ember", "Fern", "Moth", "Robin", "Tide", "Wren", "Cedar",
}
