package http

// schema is the catalog GraphQL schema. Ids are Float to match what the
// catalog clients send.
const schema = `
schema {
  query: Query
  mutation: Mutation
}

type Query {
  findAllBooks: [Book!]!
  findOneBook(id: Float!): Book!
}

type Mutation {
  createBook(data: BookInput!): Book!
  updateBook(id: Float!, data: BookInput!): Book!
  deleteBook(id: Float!): Boolean!
  deleteAllBooks: Boolean!
  restoreBooks(ids: [Float!]!): [Float!]!
}

input BookInput {
  name: String!
  description: String!
}

type Book {
  id: Float!
  name: String!
  description: String!
}
`
