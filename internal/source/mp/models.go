package mp

// BaseResp is the status envelope every vendor response carries. Ret 0 is
// success; RetTokenInvalid and RetSessionExpired mean the shared session is
// dead and the whole batch must stop.
type BaseResp struct {
	Ret    int    `json:"ret"`
	ErrMsg string `json:"err_msg"`
}

const (
	RetTokenInvalid   = 200013
	RetSessionExpired = -6
)

// AuthFailure reports whether the envelope signals rejected credentials as
// opposed to an ordinary per-request failure.
func (r BaseResp) AuthFailure() bool {
	return r.Ret == RetTokenInvalid || r.Ret == RetSessionExpired
}

// SearchResponse is returned by the searchbiz endpoint.
type SearchResponse struct {
	BaseResp BaseResp       `json:"base_resp"`
	List     []SearchResult `json:"list"`
}

type SearchResult struct {
	FakeID   string `json:"fakeid"`
	Nickname string `json:"nickname"`
	Alias    string `json:"alias"`
}

// ListResponse is returned by the appmsg listing endpoint. AppMsgCnt is only
// meaningful on the first page.
type ListResponse struct {
	BaseResp   BaseResp `json:"base_resp"`
	AppMsgCnt  int      `json:"app_msg_cnt"`
	AppMsgList []AppMsg `json:"app_msg_list"`
}

type AppMsg struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Digest     string `json:"digest"`
	CreateTime int64  `json:"create_time"`
}
