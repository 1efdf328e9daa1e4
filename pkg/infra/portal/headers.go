package portal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
)

func (c *client) commonHeaders(session *model.PortalSession) http.Header {
	h := http.Header{}
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Connection", "keep-alive")
	h.Set("Cookie", session.Cookie)
	h.Set("Origin", c.baseURL)
	h.Set("Referer", c.baseURL+refererPath)
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("User-Agent", userAgent)
	return h
}

// ajaxHeaders mimics the XHR the request page sends to register an item
func (c *client) ajaxHeaders(session *model.PortalSession) http.Header {
	h := c.commonHeaders(session)
	h.Set("Accept", "text/plain, */*; q=0.01")
	h.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("X-Requested-With", "XMLHttpRequest")
	return h
}

// navigationHeaders mimics the hidden iframe form post that downloads the zip
func (c *client) navigationHeaders(session *model.PortalSession) http.Header {
	h := c.commonHeaders(session)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Cache-Control", "max-age=0")
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("Sec-Fetch-Dest", "iframe")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// RequestBody builds the register form of one work item
func RequestBody(product *model.Product, item model.WorkItem) url.Values {
	start, end := item.Interval.Start, item.Interval.End
	return url.Values{
		"apiCd":              {product.API},
		"data_code":          {product.Code},
		"hour":               {""},
		"pageIndex":          {"1"},
		"from":               {start},
		"to":                 {end},
		"reqst_purpose_cd":   {product.PurposeCode},
		"recordCountPerPage": {"10"},
		"txtVar1Nm":          {item.Variable.Name},
		"selectType":         {product.SelectType},
		"startDt":            {start[:4]},
		"startMt":            {start[4:6]},
		"endDt":              {end[:4]},
		"endMt":              {end[4:6]},
		"from_":              {start},
		"to_":                {end},
		"var1":               {item.Variable.Code},
		"var3":               {item.Region.Code},
		"stnm":               {item.Region.Level3},
		"elcd":               {item.Variable.Name},
		"strtm":              {start},
		"endtm":              {end},
		"req_list":           {strings.Join([]string{start, end, product.Code, item.Variable.Code, item.Region.Code}, "|")},
	}
}
