package redis

const (
	// addLogScript atomically stores a log entry and indexes it by user
	addLogScript = `
local log_key = KEYS[1]        -- onlinetime:log:{id}
local user_logs = KEYS[2]      -- onlinetime:logs:user:{userID}
local users_set = KEYS[3]      -- onlinetime:logs:users

local id = ARGV[1]
local user_id = ARGV[2]
local event_name = ARGV[3]
local timestamp = ARGV[4]

redis.call('HSET', log_key,
  'id', id,
  'user_id', user_id,
  'event_name', event_name,
  'timestamp', timestamp
)

-- Score by unix seconds so range queries walk the day in order
redis.call('ZADD', user_logs, tonumber(timestamp), id)
redis.call('SADD', users_set, user_id)

return 'OK'
`

	// pruneUserLogsScript deletes a user's logs strictly older than the cutoff
	pruneUserLogsScript = `
local user_logs = KEYS[1]      -- onlinetime:logs:user:{userID}
local users_set = KEYS[2]      -- onlinetime:logs:users

local cutoff = ARGV[1]
local user_id = ARGV[2]
local log_prefix = ARGV[3]

local ids = redis.call('ZRANGEBYSCORE', user_logs, '-inf', '(' .. cutoff)
for _, id in ipairs(ids) do
  redis.call('DEL', log_prefix .. id)
end

if #ids > 0 then
  redis.call('ZREMRANGEBYSCORE', user_logs, '-inf', '(' .. cutoff)
end

if redis.call('ZCARD', user_logs) == 0 then
  redis.call('SREM', users_set, user_id)
end

return #ids
`

	// upsertSubjectScript atomically stores a subject and its directory entry
	upsertSubjectScript = `
local subject_key = KEYS[1]    -- onlinetime:subject:{externalID}
local subjects_idx = KEYS[2]   -- onlinetime:subjects

local external_id = ARGV[1]
local user_id = ARGV[2]
local first_name = ARGV[3]
local last_name = ARGV[4]

redis.call('HSET', subject_key,
  'external_id', external_id,
  'user_id', user_id,
  'first_name', first_name,
  'last_name', last_name
)

redis.call('ZADD', subjects_idx, tonumber(external_id), external_id)

return 'OK'
`
)
