package redis

import (
	"context"
	"strconv"

	"github.com/hangarops/docsense/internal/db"
)

// hsetIfRevScript writes hash fields only when the revision field matches.
// An absent key counts as revision 0.
const hsetIfRevScript = `
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur == false then cur = '0' end
if cur ~= ARGV[2] then return 0 end
for i = 3, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i+1])
end
return 1
`

// HSetIfRev performs a revision-guarded hash write via a Lua script, making the
// read-modify-write of singleton rows atomic on the server.
func (s *Store) HSetIfRev(
	ctx context.Context, key string, fields map[string]string, revField string, expected int64,
) (bool, error) {
	args := make([]string, 0, 2+2*len(fields))
	args = append(args, revField, strconv.FormatInt(expected, 10))
	for k, v := range fields {
		args = append(args, k, v)
	}

	cmd := s.b().Eval().Script(hsetIfRevScript).Numkeys(1).Key(key).Arg(args...).Build()
	ok, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return ok == 1, nil
}
