package interceptor

import "strings"

// 命令分组，对应 go-redis 中的 *Cmdable 接口
const (
	GroupGeneric    = "Cmdable"
	GroupKey        = "KeyCmdable"
	GroupString     = "StringCmdable"
	GroupHash       = "HashCmdable"
	GroupList       = "ListCmdable"
	GroupSet        = "SetCmdable"
	GroupSortedSet  = "SortedSetCmdable"
	GroupPubSub     = "PubSubCmdable"
	GroupScripting  = "ScriptingFunctionsCmdable"
	GroupStream     = "StreamCmdable"
	GroupGeo        = "GeoCmdable"
	GroupHyperLog   = "HyperLogLogCmdable"
	GroupServer     = "StatefulCmdable"
	GroupConnection = "ConnectionCmdable"
)

type commandInfo struct {
	group string
	write bool
}

var commands = map[string]commandInfo{
	// key
	"del": {GroupKey, true}, "unlink": {GroupKey, true}, "exists": {GroupKey, false},
	"expire": {GroupKey, true}, "expireat": {GroupKey, true}, "pexpire": {GroupKey, true},
	"pexpireat": {GroupKey, true}, "persist": {GroupKey, true}, "ttl": {GroupKey, false},
	"pttl": {GroupKey, false}, "type": {GroupKey, false}, "keys": {GroupKey, false},
	"scan": {GroupKey, false}, "rename": {GroupKey, true}, "renamenx": {GroupKey, true},
	"copy": {GroupKey, true}, "move": {GroupKey, true}, "touch": {GroupKey, false},
	"restore": {GroupKey, true}, "dump": {GroupKey, false},

	// string
	"get": {GroupString, false}, "set": {GroupString, true}, "setnx": {GroupString, true},
	"setex": {GroupString, true}, "psetex": {GroupString, true}, "getset": {GroupString, true},
	"getdel": {GroupString, true}, "getex": {GroupString, true}, "mget": {GroupString, false},
	"mset": {GroupString, true}, "msetnx": {GroupString, true}, "incr": {GroupString, true},
	"incrby": {GroupString, true}, "incrbyfloat": {GroupString, true}, "decr": {GroupString, true},
	"decrby": {GroupString, true}, "append": {GroupString, true}, "strlen": {GroupString, false},
	"getrange": {GroupString, false}, "setrange": {GroupString, true}, "setbit": {GroupString, true},
	"getbit": {GroupString, false}, "bitcount": {GroupString, false},

	// hash
	"hget": {GroupHash, false}, "hset": {GroupHash, true}, "hsetnx": {GroupHash, true},
	"hmset": {GroupHash, true}, "hmget": {GroupHash, false}, "hgetall": {GroupHash, false},
	"hdel": {GroupHash, true}, "hexists": {GroupHash, false}, "hlen": {GroupHash, false},
	"hkeys": {GroupHash, false}, "hvals": {GroupHash, false}, "hincrby": {GroupHash, true},
	"hincrbyfloat": {GroupHash, true}, "hscan": {GroupHash, false},

	// list
	"lpush": {GroupList, true}, "rpush": {GroupList, true}, "lpushx": {GroupList, true},
	"rpushx": {GroupList, true}, "lpop": {GroupList, true}, "rpop": {GroupList, true},
	"blpop": {GroupList, true}, "brpop": {GroupList, true}, "lrange": {GroupList, false},
	"llen": {GroupList, false}, "lrem": {GroupList, true}, "ltrim": {GroupList, true},
	"lindex": {GroupList, false}, "lset": {GroupList, true}, "linsert": {GroupList, true},
	"lmove": {GroupList, true}, "rpoplpush": {GroupList, true},

	// set
	"sadd": {GroupSet, true}, "srem": {GroupSet, true}, "smembers": {GroupSet, false},
	"sismember": {GroupSet, false}, "scard": {GroupSet, false}, "spop": {GroupSet, true},
	"srandmember": {GroupSet, false}, "sinter": {GroupSet, false}, "sunion": {GroupSet, false},
	"sdiff": {GroupSet, false}, "sinterstore": {GroupSet, true}, "sunionstore": {GroupSet, true},
	"sdiffstore": {GroupSet, true}, "smove": {GroupSet, true}, "sscan": {GroupSet, false},

	// sorted set
	"zadd": {GroupSortedSet, true}, "zrem": {GroupSortedSet, true}, "zincrby": {GroupSortedSet, true},
	"zrange": {GroupSortedSet, false}, "zrevrange": {GroupSortedSet, false},
	"zrangebyscore": {GroupSortedSet, false}, "zrevrangebyscore": {GroupSortedSet, false},
	"zscore": {GroupSortedSet, false}, "zcard": {GroupSortedSet, false}, "zcount": {GroupSortedSet, false},
	"zrank": {GroupSortedSet, false}, "zrevrank": {GroupSortedSet, false},
	"zremrangebyrank": {GroupSortedSet, true}, "zremrangebyscore": {GroupSortedSet, true},
	"zpopmin": {GroupSortedSet, true}, "zpopmax": {GroupSortedSet, true}, "zscan": {GroupSortedSet, false},

	// pub/sub
	"publish": {GroupPubSub, false}, "subscribe": {GroupPubSub, false}, "psubscribe": {GroupPubSub, false},
	"unsubscribe": {GroupPubSub, false}, "punsubscribe": {GroupPubSub, false}, "pubsub": {GroupPubSub, false},

	// scripting
	"eval": {GroupScripting, true}, "evalsha": {GroupScripting, true}, "script": {GroupScripting, false},

	// stream
	"xadd": {GroupStream, true}, "xdel": {GroupStream, true}, "xtrim": {GroupStream, true},
	"xack": {GroupStream, true}, "xgroup": {GroupStream, true}, "xread": {GroupStream, false},
	"xreadgroup": {GroupStream, true}, "xrange": {GroupStream, false}, "xlen": {GroupStream, false},

	// geo / hyperloglog
	"geoadd": {GroupGeo, true}, "geopos": {GroupGeo, false}, "geodist": {GroupGeo, false},
	"pfadd": {GroupHyperLog, true}, "pfcount": {GroupHyperLog, false}, "pfmerge": {GroupHyperLog, true},

	// server / connection
	"flushdb": {GroupServer, true}, "flushall": {GroupServer, true}, "dbsize": {GroupServer, false},
	"info": {GroupServer, false}, "select": {GroupServer, false}, "swapdb": {GroupServer, true},
	"ping": {GroupConnection, false}, "echo": {GroupConnection, false}, "hello": {GroupConnection, false},
	"client": {GroupConnection, false}, "auth": {GroupConnection, false}, "quit": {GroupConnection, false},
}

// CommandGroup 返回命令所属分组，未知命令归为 GroupGeneric
func CommandGroup(name string) string {
	if info, ok := commands[strings.ToLower(name)]; ok {
		return info.group
	}
	return GroupGeneric
}

// IsWriteCommand 是否为写命令
func IsWriteCommand(name string) bool {
	return commands[strings.ToLower(name)].write
}

// MethodOf 根据命令名构造 Method
func MethodOf(name string) Method {
	name = strings.ToLower(name)
	return Method{Interface: CommandGroup(name), Name: name}
}
