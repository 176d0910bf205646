package requestdata

import (
  "context"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// CallerID returns the resolved caller identity, or "" when the request is
// anonymous.
func CallerID(ctx context.Context) string {
  rd := GetRequestData(ctx)
  if rd == nil {
    return ""
  }
  return rd.UserID
}

type RequestData struct {
  TokenString string
  UserID      string
}
