package store

const articleQuery = `query PostByURI($id: ID!) {
  post(id: $id, idType: URI) {
    id
    excerpt
    title
    link
    dateGmt
    modifiedGmt
    content
    acfgoogle_news_url {
      googleNewsUrl
    }
    author {
      node {
        name
      }
    }
    seo {
      opengraphTitle
      opengraphImage {
        sourceUrl
      }
    }
    featuredImage {
      node {
        sourceUrl
        altText
      }
    }
  }
}`

const redirectQuery = `query PostRedirectByURI($id: ID!) {
  post(id: $id, idType: URI) {
    id
    acfgoogle_news_url {
      googleNewsUrl
    }
  }
}`

// URIForPath returns the store identifier for a request path.
func URIForPath(path string) string {
	return "/" + path + "/"
}
