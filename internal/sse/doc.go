// Package sse implements the Shanghai Stock Exchange universe source.
//
// The SSE listing API is a JSONP-wrapped commonQuery.do endpoint:
//
//	https://query.sse.com.cn/sseQuery/commonQuery.do
//
// Responses arrive as callbackName({...}); envelopes with page data under
// pageHelp.data. Pagination is page-number based (pageHelp.pageNo).
package sse
